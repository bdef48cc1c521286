// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/toeirei/obskeeper/internal/dashboard"
	"github.com/toeirei/obskeeper/internal/logging"
	"github.com/toeirei/obskeeper/internal/model"
)

// RestoreOptions controls a restore run.
type RestoreOptions struct {
	// Mapping renames backup datasource names to target names.
	Mapping map[string]string
	// DefaultDatasource is used for references nothing else resolves.
	DefaultDatasource string
	FolderID          int
	// Overwrite replaces same-titled dashboards instead of creating
	// duplicates.
	Overwrite bool
	// Datasources re-creates the backed-up datasources before dashboards.
	Datasources bool
}

// RestoreReport summarises a restore run.
type RestoreReport struct {
	Datasources []DatasourceResult
	Dashboards  []DashboardResult
	// Skipped counts backup entries without a dashboard object.
	Skipped    int
	Stats      dashboard.RemapStats
	Backfilled int
}

// FailedDashboards returns the dashboards that were not restored.
func (r RestoreReport) FailedDashboards() []DashboardResult {
	return lo.Filter(r.Dashboards, func(d DashboardResult, _ int) bool { return d.Err != nil })
}

// FailedDatasources returns the datasources that were not restored.
func (r RestoreReport) FailedDatasources() []DatasourceResult {
	return lo.Filter(r.Datasources, func(d DatasourceResult, _ int) bool { return d.Err != nil })
}

// LoadBackup reads the JSON working set from s. A missing dashboards file
// is fatal. A missing datasources file only empties the uid lookup, unless
// requireDatasources is set because they are going to be restored.
func LoadBackup(s FileStore, requireDatasources bool) (*model.BackupData, error) {
	ds, err := s.ReadDatasources()
	switch {
	case err == nil:
	case errors.Is(err, ErrBackupNotFound) && !requireDatasources:
		logging.Warnf("datasource backup file %q not found, uid lookup will be empty", s.DatasourcesPath())
		ds = nil
	default:
		return nil, err
	}

	dashboards, err := s.ReadDashboards()
	if err != nil {
		return nil, err
	}
	return &model.BackupData{
		SchemaVersion: model.BackupSchemaVersion,
		Datasources:   ds,
		Dashboards:    dashboards,
	}, nil
}

// RestoreDatasources re-creates each record on the target. Failures are
// logged and the loop continues.
func RestoreDatasources(ctx context.Context, api DatasourceAPI, records []model.DatasourceRecord, rep Reporter) []DatasourceResult {
	rep = reporterOrNop(rep)
	results := make([]DatasourceResult, 0, len(records))
	for _, rec := range records {
		name := rec.Name()
		if name == "" {
			name = "Unnamed"
		}
		report(rep, "restore.datasource_start", name)
		_, err := api.CreateDatasource(ctx, rec.WithoutID())
		if err != nil {
			logging.Errorf("failed to restore datasource %q: %v", name, err)
		} else {
			report(rep, "restore.datasource_done", name)
		}
		results = append(results, DatasourceResult{Name: name, Err: err})
	}
	return results
}

// RestoreDashboards remaps, backfills and resets each dashboard, then
// submits it. Entries without a dashboard are skipped; a failed submit is
// logged and the next dashboard is still attempted.
func RestoreDashboards(ctx context.Context, api DashboardAPI, entries []model.DashboardEnvelope, r *dashboard.Resolver, opts RestoreOptions, rep Reporter) RestoreReport {
	rep = reporterOrNop(rep)
	var rpt RestoreReport
	for i, env := range entries {
		if env.Dashboard == nil {
			logging.Warnf("backup entry %d has no dashboard data, skipping", i)
			rpt.Skipped++
			continue
		}
		doc := env.Dashboard
		res := DashboardResult{Title: env.Title(), UID: env.UID()}

		stats, fixed := r.Restore(doc)
		rpt.Stats = rpt.Stats.Add(stats)
		rpt.Backfilled += fixed
		dashboard.PrepareForImport(doc)

		_, err := api.SaveDashboard(ctx, model.SaveDashboardRequest{
			Dashboard: doc,
			FolderID:  opts.FolderID,
			Overwrite: opts.Overwrite,
		})
		if err != nil {
			logging.Errorf("failed to restore dashboard %q: %v", res.Title, err)
			res.Err = err
		} else {
			report(rep, "restore.dashboard_done", res.Title)
		}
		rpt.Dashboards = append(rpt.Dashboards, res)
	}
	return rpt
}

// RunRestoreCmd is the facade for the `restore` CLI command. Failing to
// list the target datasources is fatal; everything after that is
// per-item.
func RunRestoreCmd(ctx context.Context, api GrafanaAPI, data *model.BackupData, opts RestoreOptions, rep Reporter) (RestoreReport, error) {
	rep = reporterOrNop(rep)
	var dsResults []DatasourceResult
	if opts.Datasources {
		dsResults = RestoreDatasources(ctx, api, data.Datasources, rep)
	}

	targets, err := api.ListDatasources(ctx)
	if err != nil {
		return RestoreReport{Datasources: dsResults}, fmt.Errorf("fetching target datasources: %w", err)
	}

	resolver := &dashboard.Resolver{
		Targets: dashboard.TargetNamesFromRecords(targets),
		Backup:  dashboard.NewBackupMapping(data.Datasources),
		Mapping: opts.Mapping,
		Default: opts.DefaultDatasource,
	}
	logging.Debugf("restore: %d target datasources, %d backup datasources, %d mapping rules",
		len(resolver.Targets), len(resolver.Backup), len(opts.Mapping))

	rpt := RestoreDashboards(ctx, api, data.Dashboards, resolver, opts, rep)
	rpt.Datasources = dsResults
	return rpt, nil
}
