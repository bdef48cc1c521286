// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package grafana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/toeirei/obskeeper/internal/model"
)

// SearchDashboards lists every dashboard (folders excluded).
func (c *Client) SearchDashboards(ctx context.Context) ([]model.DashboardHit, error) {
	var hits []model.DashboardHit
	if err := c.getJSON(ctx, "/api/search?query=&type=dash-db", &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// GetDashboard fetches the full {dashboard, meta} envelope for uid.
func (c *Client) GetDashboard(ctx context.Context, uid string) (model.DashboardEnvelope, error) {
	var env model.DashboardEnvelope
	err := c.getJSON(ctx, "/api/dashboards/uid/"+url.PathEscape(uid), &env)
	return env, err
}

// SaveDashboard creates (or, with Overwrite, replaces) a dashboard.
func (c *Client) SaveDashboard(ctx context.Context, req model.SaveDashboardRequest) (model.SaveDashboardResponse, error) {
	var out model.SaveDashboardResponse
	data, err := c.do(ctx, http.MethodPost, "/api/dashboards/db", req, http.StatusOK, http.StatusCreated)
	if err != nil {
		return out, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("decode POST /api/dashboards/db: %w", err)
		}
	}
	return out, nil
}
