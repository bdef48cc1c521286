// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "strings"

// DatasourceRecord is a Grafana datasource as returned by GET /api/datasources.
// It is kept as a raw mapping so fields obskeeper does not know about survive
// a backup/restore round trip.
type DatasourceRecord map[string]any

func (d DatasourceRecord) str(key string) string {
	s, _ := d[key].(string)
	return strings.TrimSpace(s)
}

// UID returns the trimmed uid, or "".
func (d DatasourceRecord) UID() string { return d.str("uid") }

// Name returns the trimmed name, or "".
func (d DatasourceRecord) Name() string { return d.str("name") }

// Type returns the trimmed plugin type, or "".
func (d DatasourceRecord) Type() string { return d.str("type") }

// WithoutID returns a shallow copy lacking the server-assigned "id", which
// is not portable between Grafana instances.
func (d DatasourceRecord) WithoutID() DatasourceRecord {
	out := make(DatasourceRecord, len(d))
	for k, v := range d {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}

// CreateDatasourceResult is the interesting part of POST /api/datasources.
type CreateDatasourceResult struct {
	// ID is taken from datasource.id, falling back to the top-level id.
	// Zero means the server reported neither.
	ID      int64
	UID     string
	Name    string
	Message string
}
