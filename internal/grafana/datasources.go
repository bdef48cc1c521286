// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package grafana

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/toeirei/obskeeper/internal/model"
)

// ListDatasources returns every datasource of the instance.
func (c *Client) ListDatasources(ctx context.Context) ([]model.DatasourceRecord, error) {
	var out []model.DatasourceRecord
	if err := c.getJSON(ctx, "/api/datasources", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDatasource posts ds. Grafana reports the new id either under
// "datasource.id" or at the top level depending on its version.
func (c *Client) CreateDatasource(ctx context.Context, ds model.DatasourceRecord) (model.CreateDatasourceResult, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/datasources", ds, http.StatusOK, http.StatusCreated)
	if err != nil {
		return model.CreateDatasourceResult{}, err
	}
	return parseCreateDatasource(data), nil
}

func parseCreateDatasource(data []byte) model.CreateDatasourceResult {
	res := gjson.ParseBytes(data)
	id := res.Get("datasource.id").Int()
	if id == 0 {
		id = res.Get("id").Int()
	}
	name := res.Get("datasource.name").String()
	if name == "" {
		name = res.Get("name").String()
	}
	return model.CreateDatasourceResult{
		ID:      id,
		UID:     res.Get("datasource.uid").String(),
		Name:    name,
		Message: res.Get("message").String(),
	}
}

// DatasourceHealth calls the proxy health endpoint, the same check the UI
// runs on "Save & test". It returns the response body on 200.
func (c *Client) DatasourceHealth(ctx context.Context, id int64) (string, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/datasources/proxy/%d/health", id), nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
