// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import "time"

// BackupSchemaVersion is written into every archive.
const BackupSchemaVersion = 1

// BackupData is the single-file archive form of a backup: the same content
// as datasources.json and dashboards.json, bundled.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int                 `json:"schema_version"`
	CreatedAt     time.Time           `json:"created_at"`
	Source        string              `json:"source,omitempty"`
	Datasources   []DatasourceRecord  `json:"datasources"`
	Dashboards    []DashboardEnvelope `json:"dashboards"`
}
