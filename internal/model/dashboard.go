// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"encoding/json"
)

// DashboardHit is one entry of GET /api/search.
type DashboardHit struct {
	UID   string `json:"uid"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

// DashboardEnvelope is the {dashboard, meta, ...} wrapper Grafana returns
// from GET /api/dashboards/uid/{uid}. Dashboard is nil when the wrapper had
// no usable "dashboard" object; every other key is carried in Extra.
type DashboardEnvelope struct {
	Dashboard map[string]any
	Extra     map[string]any
}

// Title returns the dashboard title, or "".
func (e DashboardEnvelope) Title() string {
	if e.Dashboard == nil {
		return ""
	}
	s, _ := e.Dashboard["title"].(string)
	return s
}

// UID returns the dashboard uid, or "".
func (e DashboardEnvelope) UID() string {
	if e.Dashboard == nil {
		return ""
	}
	s, _ := e.Dashboard["uid"].(string)
	return s
}

func (e DashboardEnvelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+1)
	for k, v := range e.Extra {
		out[k] = v
	}
	if e.Dashboard != nil {
		out["dashboard"] = e.Dashboard
	}
	return json.Marshal(out)
}

func (e *DashboardEnvelope) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Dashboard = nil
	if d, ok := raw["dashboard"].(map[string]any); ok && len(d) > 0 {
		e.Dashboard = d
	}
	delete(raw, "dashboard")
	e.Extra = raw
	return nil
}

// SaveDashboardRequest is the body of POST /api/dashboards/db.
type SaveDashboardRequest struct {
	Dashboard map[string]any `json:"dashboard"`
	FolderID  int            `json:"folderId"`
	Overwrite bool           `json:"overwrite"`
}

// SaveDashboardResponse is Grafana's answer to POST /api/dashboards/db.
type SaveDashboardResponse struct {
	ID      int64  `json:"id"`
	UID     string `json:"uid"`
	URL     string `json:"url"`
	Status  string `json:"status"`
	Version int    `json:"version"`
}
