// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

// Package dashboard rewrites datasource references inside Grafana dashboard
// JSON. Dashboards are handled as untyped trees (map[string]any / []any)
// because their schema changed over time: panels live either in a flat
// top-level "panels" array (possibly nested under collapsed rows) or in the
// legacy "rows[].panels" layout, and a "datasource" value is either a plain
// name or an object with uid/name/type.
//
// WalkPanels and WalkRefs locate references; Normalize flattens them for
// export; Resolver maps them onto the datasources of a target instance.
package dashboard
