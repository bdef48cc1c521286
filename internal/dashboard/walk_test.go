// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.
package dashboard

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustDoc(t *testing.T, s string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return doc
}

func visitedTitles(doc map[string]any) []string {
	var got []string
	WalkPanels(doc, func(p map[string]any) {
		if title, ok := p["title"].(string); ok {
			got = append(got, title)
		}
	})
	sort.Strings(got)
	return got
}

func TestWalkPanels_NestedPanels(t *testing.T) {
	doc := mustDoc(t, `{"panels":[{"title":"row","panels":[{"title":"A"},{"title":"B"}]},{"title":"C"}]}`)
	got := visitedTitles(doc)
	want := []string{"A", "B", "C", "row"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("visited panels mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkPanels_LegacyRows(t *testing.T) {
	doc := mustDoc(t, `{"rows":[{"panels":[{"title":"A"}]},{"panels":[{"title":"B"},{"title":"C"}]}]}`)
	got := visitedTitles(doc)
	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Fatalf("visited panels mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkPanels_BothLayoutsNoDoubleVisit(t *testing.T) {
	shared := map[string]any{"title": "shared"}
	doc := map[string]any{
		"panels": []any{shared, map[string]any{"title": "top"}},
		"rows": []any{
			map[string]any{"panels": []any{shared, map[string]any{"title": "legacy"}}},
		},
	}
	counts := map[string]int{}
	WalkPanels(doc, func(p map[string]any) {
		counts[p["title"].(string)]++
	})
	want := map[string]int{"shared": 1, "top": 1, "legacy": 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("visit counts mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkPanels_IgnoresNonSequenceAndNonMapping(t *testing.T) {
	doc := mustDoc(t, `{"panels":{"title":"not a list"},"rows":[1,"x",{"panels":"nope"},{"panels":[null,{"title":"ok"}]}]}`)
	if diff := cmp.Diff([]string{"ok"}, visitedTitles(doc)); diff != "" {
		t.Fatalf("unexpected visits (-want +got):\n%s", diff)
	}
	WalkPanels(nil, func(map[string]any) { t.Fatalf("visit on nil doc") })
}

func TestWalkPanels_DoesNotDescendIntoTargets(t *testing.T) {
	doc := mustDoc(t, `{"panels":[{"title":"P","targets":[{"title":"T","panels":[{"title":"hidden"}]}]}]}`)
	if diff := cmp.Diff([]string{"P"}, visitedTitles(doc)); diff != "" {
		t.Fatalf("targets should not be walked (-want +got):\n%s", diff)
	}
}

func TestWalkRefs_FindsEveryDatasourceKey(t *testing.T) {
	doc := mustDoc(t, `{
		"annotations":{"list":[{"datasource":{"uid":"-- Grafana --"}}]},
		"templating":{"list":[{"datasource":"Vars"}]},
		"panels":[{"datasource":{"name":"P"},"targets":[{"datasource":{"uid":"t1"}},{"datasource":null}]}]
	}`)
	var strs, objs int
	WalkRefs(doc, func(holder map[string]any, ref Ref) {
		switch ref.(type) {
		case Resolved:
			strs++
		case Unresolved:
			objs++
		}
	})
	if strs != 1 || objs != 3 {
		t.Fatalf("expected 1 string and 3 object refs, got %d and %d", strs, objs)
	}
}

func TestParseRef(t *testing.T) {
	if r, ok := ParseRef("x"); !ok || r != Resolved("x") {
		t.Fatalf("string should parse as Resolved, got %#v %v", r, ok)
	}
	if r, ok := ParseRef(map[string]any{"uid": " u "}); !ok {
		t.Fatalf("object should parse")
	} else if uid, _ := r.(Unresolved).UID(); uid != "u" {
		t.Fatalf("uid should be trimmed, got %q", uid)
	}
	for _, v := range []any{nil, 3.0, []any{}} {
		if _, ok := ParseRef(v); ok {
			t.Fatalf("%#v should not parse", v)
		}
	}
}
