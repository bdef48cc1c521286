// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/toeirei/obskeeper/internal/config"
	"github.com/toeirei/obskeeper/internal/influx"
	"github.com/toeirei/obskeeper/internal/logging"
	"github.com/toeirei/obskeeper/internal/model"
)

const (
	StepInfluxSetup        = "influxdb-setup"
	StepGrafanaPassword    = "grafana-password"
	StepMQTTPassword       = "mqtt-password"
	StepInfluxDatasource   = "influxdb-datasource"
	StepMQTTDatasource     = "mqtt-datasource"
	StepRestore            = "restore"
	mqttDatasourceClientID = "grafana-mqtt-client"
)

// DefaultSteps is the sequence `setup` runs without --steps. The broker
// password change is opt-in.
var DefaultSteps = []string{
	StepInfluxSetup,
	StepGrafanaPassword,
	StepInfluxDatasource,
	StepMQTTDatasource,
	StepRestore,
}

// Provisioner brings a fresh stack into its configured state. Each field
// is a collaborator injected by the caller.
type Provisioner struct {
	Config *config.Config
	// Grafana authenticates with the configured (final) password.
	Grafana GrafanaAPI
	// GrafanaInitial authenticates with the initial password.
	GrafanaInitial PasswordChanger
	Influx         InfluxSetup
	// DialBroker opens a control session with the initial broker
	// credentials.
	DialBroker func(ctx context.Context) (BrokerControl, error)
	// LoadBackup supplies the data for the restore step.
	LoadBackup func() (*model.BackupData, error)
	Reporter   Reporter
}

// Steps returns every provisioning step in execution order.
func (p *Provisioner) Steps() []Step {
	return []Step{
		{Name: StepInfluxSetup, Run: p.influxSetup},
		{Name: StepGrafanaPassword, Run: p.grafanaPassword},
		{Name: StepMQTTPassword, Run: p.mqttPassword},
		{Name: StepInfluxDatasource, Run: p.influxDatasource},
		{Name: StepMQTTDatasource, Run: p.mqttDatasource},
		{Name: StepRestore, Run: p.restore},
	}
}

// RunSetupCmd is the facade for the `setup` CLI command. names selects
// steps; empty means DefaultSteps.
func RunSetupCmd(ctx context.Context, p *Provisioner, names []string) ([]StepResult, error) {
	if len(names) == 0 {
		names = DefaultSteps
	}
	steps, err := SelectSteps(p.Steps(), names)
	if err != nil {
		return nil, err
	}
	return RunSteps(ctx, steps, p.Reporter)
}

func (p *Provisioner) rep() Reporter { return reporterOrNop(p.Reporter) }

func (p *Provisioner) influxSetup(ctx context.Context) error {
	cfg := p.Config
	if err := cfg.Require("influxdb.password", "influxdb.org", "influxdb.bucket"); err != nil {
		return err
	}
	res, err := p.Influx.Setup(ctx, influx.SetupRequest{
		Username:               cfg.InfluxDB.Username,
		Password:               cfg.InfluxDB.Password,
		Org:                    cfg.InfluxDB.Org,
		Bucket:                 cfg.InfluxDB.Bucket,
		RetentionPeriodSeconds: int64(cfg.RetentionSeconds()),
		Token:                  cfg.InfluxDB.Token,
	})
	if err != nil {
		return err
	}
	report(p.rep(), "setup.influx_done", cfg.InfluxDB.Org, cfg.InfluxDB.Bucket, cfg.InfluxDB.RetentionDays)
	report(p.rep(), "setup.influx_token", res.Token)
	if cfg.InfluxDB.Token != "" && res.Token != cfg.InfluxDB.Token {
		logging.Warnf("influxdb returned a token different from the configured one")
		report(p.rep(), "setup.influx_token_mismatch")
	}
	return nil
}

func (p *Provisioner) grafanaPassword(ctx context.Context) error {
	cfg := p.Config
	if err := cfg.Require("grafana.initial_password", "grafana.password"); err != nil {
		return err
	}
	if err := p.GrafanaInitial.ChangePassword(ctx, cfg.Grafana.InitialPassword, cfg.Grafana.Password); err != nil {
		return err
	}
	report(p.rep(), "setup.grafana_password_done", cfg.Grafana.User)
	return nil
}

func (p *Provisioner) mqttPassword(ctx context.Context) error {
	cfg := p.Config
	if err := cfg.Require("mqtt.initial_password", "mqtt.password"); err != nil {
		return err
	}
	if p.DialBroker == nil {
		return errors.New("no broker connection configured")
	}
	ctl, err := p.DialBroker(ctx)
	if err != nil {
		return err
	}
	defer ctl.Close()
	if err := ctl.ChangePassword(ctx, cfg.MQTT.AdminUser, cfg.MQTT.Password); err != nil {
		return err
	}
	report(p.rep(), "setup.mqtt_password_done", cfg.MQTT.AdminUser)
	return nil
}

// InfluxDatasource is the Flux datasource pointing Grafana at InfluxDB.
func InfluxDatasource(cfg *config.Config) model.DatasourceRecord {
	return model.DatasourceRecord{
		"name":      cfg.Grafana.Datasource,
		"type":      "influxdb",
		"url":       cfg.InfluxURL(),
		"access":    "proxy",
		"basicAuth": false,
		"jsonData": map[string]any{
			"version":       "Flux",
			"organization":  cfg.InfluxDB.Org,
			"defaultBucket": cfg.InfluxDB.Bucket,
		},
		"secureJsonData": map[string]any{
			"token": cfg.InfluxDB.Token,
		},
	}
}

// MQTTDatasource is the grafana-mqtt-datasource plugin datasource reading
// the broker over websockets.
func MQTTDatasource(cfg *config.Config) model.DatasourceRecord {
	return model.DatasourceRecord{
		"name":      cfg.Grafana.MQTTDatasource,
		"type":      "grafana-mqtt-datasource",
		"access":    "proxy",
		"basicAuth": false,
		"isDefault": false,
		"jsonData": map[string]any{
			"Uri":      cfg.MQTTWebsocketURL(),
			"clientId": mqttDatasourceClientID,
			"topic":    "#",
			"qos":      0,
			"username": cfg.MQTT.User,
		},
		"secureJsonData": map[string]any{
			"password": cfg.MQTT.Password,
		},
	}
}

func (p *Provisioner) influxDatasource(ctx context.Context) error {
	if err := p.Config.Require("grafana.datasource", "influxdb.org", "influxdb.bucket", "influxdb.token"); err != nil {
		return err
	}
	return p.createDatasource(ctx, InfluxDatasource(p.Config), true)
}

func (p *Provisioner) mqttDatasource(ctx context.Context) error {
	if err := p.Config.Require("grafana.mqtt_datasource", "mqtt.user", "mqtt.password"); err != nil {
		return err
	}
	return p.createDatasource(ctx, MQTTDatasource(p.Config), p.Config.Grafana.HealthCheck)
}

// createDatasource creates ds and optionally runs the health check. A
// failed create is fatal; a failed health check is only logged.
func (p *Provisioner) createDatasource(ctx context.Context, ds model.DatasourceRecord, healthCheck bool) error {
	res, err := p.Grafana.CreateDatasource(ctx, ds)
	if err != nil {
		return fmt.Errorf("creating datasource %q: %w", ds.Name(), err)
	}
	report(p.rep(), "setup.datasource_created", ds.Name())
	if !healthCheck {
		return nil
	}
	if res.ID == 0 {
		logging.Warnf("could not determine the id of datasource %q, skipping health check", ds.Name())
		return nil
	}
	body, err := p.Grafana.DatasourceHealth(ctx, res.ID)
	if err != nil {
		logging.Errorf("health check of datasource %q (id %d) failed: %v", ds.Name(), res.ID, err)
		return nil
	}
	report(p.rep(), "setup.health_ok", ds.Name(), body)
	return nil
}

func (p *Provisioner) restore(ctx context.Context) error {
	if p.LoadBackup == nil {
		return errors.New("no backup source configured")
	}
	data, err := p.LoadBackup()
	if err != nil {
		return err
	}
	rc := p.Config.Restore
	_, err = RunRestoreCmd(ctx, p.Grafana, data, RestoreOptions{
		Mapping:           rc.MappingTable(),
		DefaultDatasource: rc.DefaultDatasource,
		FolderID:          rc.FolderID,
		Overwrite:         rc.Overwrite,
		Datasources:       rc.RestoreDatasources,
	}, p.Reporter)
	return err
}
