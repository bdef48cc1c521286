// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package dashboard

// Normalize flattens the panel-level datasource of every panel in doc to a
// plain name, as done before a dashboard is written to a backup. An object
// reference becomes its "name", or "" when it has none; string references
// are left as they are. It returns the number of panels changed and is a
// no-op on an already normalized document.
func Normalize(doc map[string]any) int {
	changed := 0
	WalkPanels(doc, func(panel map[string]any) {
		ref, ok := ParseRef(panel[DatasourceKey])
		if !ok {
			return
		}
		if u, isObj := ref.(Unresolved); isObj {
			panel[DatasourceKey] = u.RawName()
			changed++
		}
	})
	return changed
}

// PrepareForImport drops the environment-assigned identity of doc so the
// target instance assigns fresh ones: "id" and "uid" are removed and
// "version" is reset to 0.
func PrepareForImport(doc map[string]any) {
	delete(doc, "id")
	delete(doc, "uid")
	doc["version"] = 0
}
