// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"

	"github.com/toeirei/obskeeper/internal/influx"
	"github.com/toeirei/obskeeper/internal/model"
)

// DatasourceAPI covers the datasource endpoints of the metrics server.
type DatasourceAPI interface {
	ListDatasources(ctx context.Context) ([]model.DatasourceRecord, error)
	CreateDatasource(ctx context.Context, ds model.DatasourceRecord) (model.CreateDatasourceResult, error)
	DatasourceHealth(ctx context.Context, id int64) (string, error)
}

// DashboardAPI covers the dashboard endpoints of the metrics server.
type DashboardAPI interface {
	SearchDashboards(ctx context.Context) ([]model.DashboardHit, error)
	GetDashboard(ctx context.Context, uid string) (model.DashboardEnvelope, error)
	SaveDashboard(ctx context.Context, req model.SaveDashboardRequest) (model.SaveDashboardResponse, error)
}

// GrafanaAPI is everything backup and restore need. *grafana.Client
// implements it.
type GrafanaAPI interface {
	DatasourceAPI
	DashboardAPI
}

// PasswordChanger rotates the metrics server admin password.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

// InfluxSetup onboards the time-series database.
type InfluxSetup interface {
	Setup(ctx context.Context, req influx.SetupRequest) (influx.SetupResult, error)
}

// BrokerControl issues admin commands to the MQTT broker.
type BrokerControl interface {
	ChangePassword(ctx context.Context, username, password string) error
	Close()
}

// Reporter is used by facades to emit progress or human-readable messages.
// The CLI prints each line; tests record them.
type Reporter interface {
	Reportf(format string, args ...any)
}

// ReporterFunc adapts a printf-like function to Reporter.
type ReporterFunc func(format string, args ...any)

func (f ReporterFunc) Reportf(format string, args ...any) { f(format, args...) }

type nopReporter struct{}

func (nopReporter) Reportf(string, ...any) {}

func reporterOrNop(r Reporter) Reporter {
	if r == nil {
		return nopReporter{}
	}
	return r
}
