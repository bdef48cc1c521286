// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/toeirei/obskeeper/internal/core"
	"github.com/toeirei/obskeeper/internal/grafana"
	"github.com/toeirei/obskeeper/internal/model"
	"github.com/toeirei/obskeeper/internal/testutil"
)

type recordingReporter struct{ lines []string }

func (r *recordingReporter) Reportf(format string, args ...any) {
	r.lines = append(r.lines, format)
}

func newClient(f *testutil.FakeGrafana) *grafana.Client {
	return grafana.New(f.URL(), f.User, f.Password)
}

func TestBackupStripsIDsAndNormalizes(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	fake.Datasources = []model.DatasourceRecord{
		{"id": 1, "uid": "u1", "name": "Influx", "type": "influxdb"},
	}
	fake.Dashboards["a"] = map[string]any{
		"uid": "a", "title": "Alpha",
		"panels": []any{
			map[string]any{"datasource": map[string]any{"uid": "u1", "name": "Influx"}},
			map[string]any{"datasource": map[string]any{"uid": "u1"}},
			map[string]any{"datasource": "Plain"},
		},
	}
	fake.Dashboards["b"] = map[string]any{"uid": "b", "title": "Broken"}
	fake.FailFetch = map[string]int{"b": http.StatusInternalServerError}

	rep := &recordingReporter{}
	data, rpt, err := core.RunBackupCmd(context.Background(), newClient(fake), fake.URL(), rep)
	if err != nil {
		t.Fatalf("RunBackupCmd: %v", err)
	}

	wantDS := []model.DatasourceRecord{{"uid": "u1", "name": "Influx", "type": "influxdb"}}
	if diff := cmp.Diff(wantDS, data.Datasources); diff != "" {
		t.Errorf("datasources (-want +got):\n%s", diff)
	}
	if len(data.Dashboards) != 1 || data.Dashboards[0].Title() != "Alpha" {
		t.Fatalf("expected only Alpha to be backed up, got %+v", data.Dashboards)
	}
	panels := data.Dashboards[0].Dashboard["panels"].([]any)
	got := []any{}
	for _, p := range panels {
		got = append(got, p.(map[string]any)["datasource"])
	}
	if diff := cmp.Diff([]any{"Influx", "", "Plain"}, got); diff != "" {
		t.Errorf("normalized panel datasources (-want +got):\n%s", diff)
	}
	if rpt.Normalized != 2 {
		t.Errorf("Normalized = %d, want 2", rpt.Normalized)
	}
	failed := rpt.Failed()
	if len(failed) != 1 || failed[0].UID != "b" {
		t.Errorf("expected b to be reported as failed, got %+v", failed)
	}
	if _, ok := data.Dashboards[0].Extra["meta"]; !ok {
		t.Errorf("meta should be carried along with the dashboard")
	}
	if len(rep.lines) == 0 {
		t.Errorf("expected progress to be reported")
	}
}

func TestBackupFatalFailures(t *testing.T) {
	t.Run("datasources", func(t *testing.T) {
		fake := testutil.NewFakeGrafana(t)
		fake.FailList = http.StatusInternalServerError
		if _, _, err := core.RunBackupCmd(context.Background(), newClient(fake), "", nil); err == nil {
			t.Fatal("expected datasource list failure to be fatal")
		}
	})
	t.Run("search", func(t *testing.T) {
		fake := testutil.NewFakeGrafana(t)
		fake.FailSearch = http.StatusForbidden
		_, _, err := core.RunBackupCmd(context.Background(), newClient(fake), "", nil)
		var apiErr *grafana.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
			t.Fatalf("expected search failure to be fatal with 403, got %v", err)
		}
	})
}

func restoreFixture() *model.BackupData {
	dash := func(title string) model.DashboardEnvelope {
		return model.DashboardEnvelope{
			Dashboard: map[string]any{
				"id": 5, "uid": title + "-uid", "version": 3, "title": title,
				"panels": []any{
					map[string]any{
						"datasource": map[string]any{"uid": "u1"},
						"targets": []any{
							map[string]any{"datasource": map[string]any{"name": "Unknown"}},
						},
					},
					map[string]any{
						"datasource": "",
						"targets": []any{
							map[string]any{"datasource": map[string]any{"name": "Prod-Influx"}},
						},
					},
				},
			},
			Extra: map[string]any{"meta": map[string]any{}},
		}
	}
	return &model.BackupData{
		Datasources: []model.DatasourceRecord{{"uid": "u1", "name": "Old-Influx"}},
		Dashboards: []model.DashboardEnvelope{
			dash("A"),
			dash("B"),
			{Extra: map[string]any{"meta": map[string]any{}}},
			dash("C"),
		},
	}
}

func TestRestoreRemapsAndResets(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	fake.Datasources = []model.DatasourceRecord{{"id": 1, "uid": "p1", "name": "Prod-Influx"}}

	opts := core.RestoreOptions{
		Mapping:           map[string]string{"Old-Influx": "Prod-Influx"},
		DefaultDatasource: "Fallback",
		FolderID:          7,
		Overwrite:         true,
	}
	rpt, err := core.RunRestoreCmd(context.Background(), newClient(fake), restoreFixture(), opts, nil)
	if err != nil {
		t.Fatalf("RunRestoreCmd: %v", err)
	}
	if rpt.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", rpt.Skipped)
	}
	want := []string{"A", "B", "C"}
	if diff := cmp.Diff(want, fake.SavedTitles()); diff != "" {
		t.Fatalf("saved titles (-want +got):\n%s", diff)
	}

	saved := fake.Saved[0]
	if saved.FolderID != 7 || !saved.Overwrite {
		t.Errorf("folder/overwrite not passed through: %+v", saved)
	}
	if _, ok := saved.Dashboard["id"]; ok {
		t.Errorf("id must be cleared")
	}
	if _, ok := saved.Dashboard["uid"]; ok {
		t.Errorf("uid must be cleared")
	}
	if v, _ := saved.Dashboard["version"].(float64); v != 0 {
		t.Errorf("version = %v, want 0", saved.Dashboard["version"])
	}
	panels := saved.Dashboard["panels"].([]any)
	p0 := panels[0].(map[string]any)
	if p0["datasource"] != "Prod-Influx" {
		t.Errorf("uid lookup + mapping: got %v", p0["datasource"])
	}
	if tgt := p0["targets"].([]any)[0].(map[string]any); tgt["datasource"] != "Fallback" {
		t.Errorf("unknown target datasource should fall back, got %v", tgt["datasource"])
	}
	if p1 := panels[1].(map[string]any); p1["datasource"] != "Prod-Influx" {
		t.Errorf("empty panel datasource should be backfilled, got %v", p1["datasource"])
	}

	wantStats := 3 * 3 // three references per dashboard
	if got := rpt.Stats.Total(); got != wantStats {
		t.Errorf("Stats.Total = %d, want %d", got, wantStats)
	}
	if rpt.Backfilled != 3 {
		t.Errorf("Backfilled = %d, want 3", rpt.Backfilled)
	}
}

func TestRestoreContinuesAfterFailedSubmit(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	fake.Datasources = []model.DatasourceRecord{{"name": "Prod-Influx"}}
	fake.FailSave = map[string]int{"B": http.StatusBadRequest}

	rpt, err := core.RunRestoreCmd(context.Background(), newClient(fake), restoreFixture(), core.RestoreOptions{}, nil)
	if err != nil {
		t.Fatalf("RunRestoreCmd: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "C"}, fake.SavedTitles()); diff != "" {
		t.Errorf("saved titles (-want +got):\n%s", diff)
	}
	failed := rpt.FailedDashboards()
	if len(failed) != 1 || failed[0].Title != "B" {
		t.Fatalf("expected B to fail, got %+v", failed)
	}
	var apiErr *grafana.APIError
	if !errors.As(failed[0].Err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected APIError 400, got %v", failed[0].Err)
	}
}

func TestRestoreTargetListFailureIsFatal(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	fake.FailList = http.StatusInternalServerError

	if _, err := core.RunRestoreCmd(context.Background(), newClient(fake), restoreFixture(), core.RestoreOptions{}, nil); err == nil {
		t.Fatal("expected an error")
	}
	if n := len(fake.SavedTitles()); n != 0 {
		t.Errorf("no dashboard should be submitted, got %d", n)
	}
}

func TestRestoreDatasources(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	fake.FailCreateDatasource = map[string]int{"Bad": http.StatusBadRequest}
	data := &model.BackupData{
		Datasources: []model.DatasourceRecord{
			{"uid": "u1", "name": "Bad", "type": "influxdb"},
			{"uid": "u2", "name": "Good", "type": "influxdb"},
		},
	}

	rpt, err := core.RunRestoreCmd(context.Background(), newClient(fake), data, core.RestoreOptions{Datasources: true}, nil)
	if err != nil {
		t.Fatalf("RunRestoreCmd: %v", err)
	}
	if diff := cmp.Diff([]string{"Good"}, fake.DatasourceNames()); diff != "" {
		t.Errorf("datasources on target (-want +got):\n%s", diff)
	}
	failed := rpt.FailedDatasources()
	if len(failed) != 1 || failed[0].Name != "Bad" {
		t.Errorf("expected Bad to fail, got %+v", failed)
	}
}

func TestRestoreDatasourcesOffByDefault(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	data := &model.BackupData{Datasources: []model.DatasourceRecord{{"uid": "u1", "name": "X"}}}

	rpt, err := core.RunRestoreCmd(context.Background(), newClient(fake), data, core.RestoreOptions{}, nil)
	if err != nil {
		t.Fatalf("RunRestoreCmd: %v", err)
	}
	if len(rpt.Datasources) != 0 || len(fake.DatasourceNames()) != 0 {
		t.Errorf("datasources must not be restored unless asked")
	}
}
