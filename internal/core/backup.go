// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/toeirei/obskeeper/internal/dashboard"
	"github.com/toeirei/obskeeper/internal/i18n"
	"github.com/toeirei/obskeeper/internal/logging"
	"github.com/toeirei/obskeeper/internal/model"
)

// DashboardResult is the outcome for one dashboard of a bulk operation.
type DashboardResult struct {
	Title string
	UID   string
	Err   error
}

// DatasourceResult is the outcome for one datasource of a bulk operation.
type DatasourceResult struct {
	Name string
	Err  error
}

// BackupReport summarises a backup run.
type BackupReport struct {
	Dashboards []DashboardResult
	// Normalized counts panel datasource objects flattened to names.
	Normalized int
}

// Failed returns the dashboards that could not be backed up.
func (r BackupReport) Failed() []DashboardResult {
	return lo.Filter(r.Dashboards, func(d DashboardResult, _ int) bool { return d.Err != nil })
}

func report(rep Reporter, id string, args ...any) {
	rep.Reportf("%s", i18n.T(id, args...))
}

// BackupDatasources fetches every datasource and strips the server-assigned
// id. A failed fetch is fatal.
func BackupDatasources(ctx context.Context, api DatasourceAPI) ([]model.DatasourceRecord, error) {
	list, err := api.ListDatasources(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching datasources: %w", err)
	}
	return lo.Map(list, func(d model.DatasourceRecord, _ int) model.DatasourceRecord {
		return d.WithoutID()
	}), nil
}

// BackupDashboards fetches every dashboard and normalizes its panel
// datasource references to plain names. A failed search is fatal; a
// dashboard that cannot be fetched is logged and skipped.
func BackupDashboards(ctx context.Context, api DashboardAPI, rep Reporter) ([]model.DashboardEnvelope, BackupReport, error) {
	rep = reporterOrNop(rep)
	var out []model.DashboardEnvelope
	var rpt BackupReport

	hits, err := api.SearchDashboards(ctx)
	if err != nil {
		return nil, rpt, fmt.Errorf("searching dashboards: %w", err)
	}

	for _, hit := range hits {
		if hit.UID == "" {
			continue
		}
		res := DashboardResult{Title: hit.Title, UID: hit.UID}
		env, err := api.GetDashboard(ctx, hit.UID)
		if err != nil {
			logging.Errorf("failed to fetch dashboard %q (%s): %v", hit.Title, hit.UID, err)
			res.Err = err
			rpt.Dashboards = append(rpt.Dashboards, res)
			continue
		}
		if env.Dashboard != nil {
			rpt.Normalized += dashboard.Normalize(env.Dashboard)
		}
		out = append(out, env)
		rpt.Dashboards = append(rpt.Dashboards, res)
		report(rep, "backup.dashboard_done", hit.Title)
	}
	return out, rpt, nil
}

// RunBackupCmd is the facade for the `backup` CLI command. It fetches
// datasources first and then dashboards, returning both bundled.
func RunBackupCmd(ctx context.Context, api GrafanaAPI, source string, rep Reporter) (*model.BackupData, BackupReport, error) {
	rep = reporterOrNop(rep)
	ds, err := BackupDatasources(ctx, api)
	if err != nil {
		return nil, BackupReport{}, err
	}
	report(rep, "backup.datasources_done", len(ds))

	dashboards, rpt, err := BackupDashboards(ctx, api, rep)
	if err != nil {
		return nil, rpt, err
	}
	if dashboards == nil {
		dashboards = []model.DashboardEnvelope{}
	}
	return &model.BackupData{
		SchemaVersion: model.BackupSchemaVersion,
		CreatedAt:     time.Now().UTC(),
		Source:        source,
		Datasources:   ds,
		Dashboards:    dashboards,
	}, rpt, nil
}
