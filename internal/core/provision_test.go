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
	"github.com/toeirei/obskeeper/internal/broker"
	"github.com/toeirei/obskeeper/internal/config"
	"github.com/toeirei/obskeeper/internal/core"
	"github.com/toeirei/obskeeper/internal/grafana"
	"github.com/toeirei/obskeeper/internal/influx"
	"github.com/toeirei/obskeeper/internal/model"
	"github.com/toeirei/obskeeper/internal/testutil"
)

type fakeInflux struct {
	got   influx.SetupRequest
	token string
	err   error
}

func (f *fakeInflux) Setup(_ context.Context, req influx.SetupRequest) (influx.SetupResult, error) {
	f.got = req
	if f.err != nil {
		return influx.SetupResult{}, f.err
	}
	return influx.SetupResult{Token: f.token}, nil
}

type fakeBroker struct {
	user, password string
	err            error
	closed         bool
}

func (f *fakeBroker) ChangePassword(_ context.Context, user, password string) error {
	f.user, f.password = user, password
	return f.err
}

func (f *fakeBroker) Close() { f.closed = true }

func provisionConfig(fake *testutil.FakeGrafana) *config.Config {
	return &config.Config{
		Address: "stack.local",
		Grafana: config.GrafanaConfig{
			URL:             fake.URL(),
			User:            "admin",
			Password:        "g-new",
			InitialPassword: "admin",
			Datasource:      "Prod-Influx",
			MQTTDatasource:  "Prod-MQTT",
		},
		InfluxDB: config.InfluxDBConfig{
			Username: "admin", Password: "i-pw", Org: "home", Bucket: "metrics",
			RetentionDays: 14, Token: "tok",
		},
		MQTT: config.MQTTConfig{
			AdminUser: "default", InitialPassword: "defaultdefault",
			Password: "m-new", User: "grafana",
		},
		Restore: config.RestoreConfig{
			DatasourceMapping: []config.MappingRule{{From: "Old-Influx", To: "Prod-Influx"}},
		},
	}
}

func newProvisioner(fake *testutil.FakeGrafana, cfg *config.Config, inf *fakeInflux, br *fakeBroker) *core.Provisioner {
	client := grafana.New(fake.URL(), cfg.Grafana.User, cfg.Grafana.Password)
	return &core.Provisioner{
		Config:         cfg,
		Grafana:        client,
		GrafanaInitial: client.WithPassword(cfg.Grafana.InitialPassword),
		Influx:         inf,
		DialBroker:     func(context.Context) (core.BrokerControl, error) { return br, nil },
		LoadBackup: func() (*model.BackupData, error) {
			return &model.BackupData{
				Datasources: []model.DatasourceRecord{{"uid": "u1", "name": "Old-Influx"}},
				Dashboards: []model.DashboardEnvelope{{Dashboard: map[string]any{
					"title":  "Home",
					"panels": []any{map[string]any{"datasource": map[string]any{"uid": "u1"}}},
				}}},
			}, nil
		},
	}
}

func TestSetupDefaultSteps(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	cfg := provisionConfig(fake)
	inf := &fakeInflux{token: "tok"}
	br := &fakeBroker{}

	results, err := core.RunSetupCmd(context.Background(), newProvisioner(fake, cfg, inf, br), nil)
	if err != nil {
		t.Fatalf("RunSetupCmd: %v", err)
	}
	var names []string
	for _, r := range results {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff(core.DefaultSteps, names); diff != "" {
		t.Errorf("steps run (-want +got):\n%s", diff)
	}

	if inf.got.RetentionPeriodSeconds != 14*86400 || inf.got.Token != "tok" || inf.got.Org != "home" {
		t.Errorf("unexpected influx setup request %+v", inf.got)
	}
	if fake.CurrentPassword() != "g-new" {
		t.Errorf("grafana password not rotated")
	}
	if diff := cmp.Diff([]string{"Prod-Influx", "Prod-MQTT"}, fake.DatasourceNames()); diff != "" {
		t.Errorf("datasources (-want +got):\n%s", diff)
	}
	if br.user != "" {
		t.Errorf("broker password step is opt-in")
	}

	if len(fake.Saved) != 1 {
		t.Fatalf("expected the backup to be restored, saved %d", len(fake.Saved))
	}
	panel := fake.Saved[0].Dashboard["panels"].([]any)[0].(map[string]any)
	if panel["datasource"] != "Prod-Influx" {
		t.Errorf("restored panel datasource = %v", panel["datasource"])
	}
}

func TestSetupDatasourcePayloads(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	cfg := provisionConfig(fake)

	in := core.InfluxDatasource(cfg)
	if in["url"] != "http://stack.local:8086" || in["type"] != "influxdb" {
		t.Errorf("influx datasource %v", in)
	}
	if jd := in["jsonData"].(map[string]any); jd["version"] != "Flux" || jd["defaultBucket"] != "metrics" {
		t.Errorf("influx jsonData %v", jd)
	}

	mq := core.MQTTDatasource(cfg)
	jd := mq["jsonData"].(map[string]any)
	if jd["Uri"] != "ws://stack.local:9001" || jd["clientId"] != "grafana-mqtt-client" || jd["topic"] != "#" {
		t.Errorf("mqtt jsonData %v", jd)
	}
	if mq["isDefault"] != false {
		t.Errorf("mqtt datasource must not become the default")
	}
}

func TestSetupHealthFailureIsNotFatal(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	fake.Health = map[int64]int{101: http.StatusBadGateway}
	fake.Password = "g-new"
	cfg := provisionConfig(fake)

	_, err := core.RunSetupCmd(context.Background(), newProvisioner(fake, cfg, &fakeInflux{}, &fakeBroker{}),
		[]string{core.StepInfluxDatasource})
	if err != nil {
		t.Fatalf("a failed health check must not fail the step: %v", err)
	}
}

func TestSetupStopsAtFirstFailure(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	cfg := provisionConfig(fake)
	inf := &fakeInflux{err: &influx.SetupError{StatusCode: 422, Body: "already onboarded"}}

	results, err := core.RunSetupCmd(context.Background(), newProvisioner(fake, cfg, inf, &fakeBroker{}), nil)
	var se *influx.SetupError
	if !errors.As(err, &se) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("only the failing step should have run, got %d results", len(results))
	}
	if fake.CurrentPassword() != "admin" {
		t.Errorf("later steps must not run")
	}
}

func TestSetupMissingConfig(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	cfg := provisionConfig(fake)
	cfg.Grafana.Datasource = ""
	fake.Password = "g-new"

	_, err := core.RunSetupCmd(context.Background(), newProvisioner(fake, cfg, &fakeInflux{}, &fakeBroker{}),
		[]string{core.StepInfluxDatasource})
	if !errors.Is(err, config.ErrMissingValue) {
		t.Fatalf("expected ErrMissingValue, got %v", err)
	}
}

func TestSetupBrokerPassword(t *testing.T) {
	fake := testutil.NewFakeGrafana(t)
	cfg := provisionConfig(fake)
	br := &fakeBroker{}

	if _, err := core.RunSetupCmd(context.Background(), newProvisioner(fake, cfg, &fakeInflux{}, br),
		[]string{core.StepMQTTPassword}); err != nil {
		t.Fatal(err)
	}
	if br.user != "default" || br.password != "m-new" || !br.closed {
		t.Errorf("unexpected broker interaction %+v", br)
	}

	br = &fakeBroker{err: broker.ErrResponseTimeout}
	_, err := core.RunSetupCmd(context.Background(), newProvisioner(fake, cfg, &fakeInflux{}, br),
		[]string{core.StepMQTTPassword})
	if !errors.Is(err, broker.ErrResponseTimeout) {
		t.Fatalf("expected ErrResponseTimeout, got %v", err)
	}
}
