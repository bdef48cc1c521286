// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package dashboard

import (
	"reflect"
	"sort"
)

// WalkPanels calls visit once for every panel of doc. Panels are found in
// the top-level "panels" array, in the "panels" array of any panel
// (collapsed rows), and in "rows[].panels" of legacy dashboards. A
// document carrying both layouts has both walked.
//
// Each physical panel map is visited at most once even if it is reachable
// through more than one path. visit may mutate the panel; children are
// collected before visit runs.
func WalkPanels(doc map[string]any, visit func(panel map[string]any)) {
	if doc == nil || visit == nil {
		return
	}
	w := &panelWalker{visit: visit, seen: map[uintptr]struct{}{}}
	w.container(doc)
}

type panelWalker struct {
	visit func(map[string]any)
	seen  map[uintptr]struct{}
}

func (w *panelWalker) container(node map[string]any) {
	for _, p := range mapsIn(node["panels"]) {
		w.panel(p)
	}
	for _, row := range mapsIn(node["rows"]) {
		if w.mark(row) {
			w.container(row)
		}
	}
}

func (w *panelWalker) panel(p map[string]any) {
	if !w.mark(p) {
		return
	}
	children := mapsIn(p["panels"])
	w.visit(p)
	for _, c := range children {
		w.panel(c)
	}
}

// mark records m as seen and reports whether it was new.
func (w *panelWalker) mark(m map[string]any) bool {
	key := reflect.ValueOf(m).Pointer()
	if _, dup := w.seen[key]; dup {
		return false
	}
	w.seen[key] = struct{}{}
	return true
}

// mapsIn returns the mapping elements of v when v is a sequence.
func mapsIn(v any) []map[string]any {
	seq, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(seq))
	for _, el := range seq {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// WalkRefs calls fn for every "datasource" field anywhere under node, in
// panels, query targets, template variables and annotations alike. holder
// is the mapping owning the field, so fn can replace the value. The value
// of a "datasource" field is never descended into. Keys are visited in
// sorted order so diagnostics come out deterministically.
func WalkRefs(node any, fn func(holder map[string]any, ref Ref)) {
	switch t := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == DatasourceKey {
				if ref, ok := ParseRef(t[k]); ok {
					fn(t, ref)
				}
				continue
			}
			WalkRefs(t[k], fn)
		}
	case []any:
		for _, el := range t {
			WalkRefs(el, fn)
		}
	}
}
