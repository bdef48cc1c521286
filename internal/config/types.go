// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingValue is returned by Validate when a required key is empty.
var ErrMissingValue = errors.New("missing required configuration value")

// Config is the full obskeeper configuration.
type Config struct {
	// Address is the host all three services run on unless a section
	// overrides its own URL.
	Address  string         `mapstructure:"address" yaml:"address"`
	Language string         `mapstructure:"language" yaml:"language"`
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
	Grafana  GrafanaConfig  `mapstructure:"grafana" yaml:"grafana"`
	InfluxDB InfluxDBConfig `mapstructure:"influxdb" yaml:"influxdb"`
	MQTT     MQTTConfig     `mapstructure:"mqtt" yaml:"mqtt"`
	Restore  RestoreConfig  `mapstructure:"restore" yaml:"restore"`
	Backup   BackupConfig   `mapstructure:"backup" yaml:"backup"`
}

type GrafanaConfig struct {
	URL             string `mapstructure:"url" yaml:"url"`
	User            string `mapstructure:"user" yaml:"user"`
	Password        string `mapstructure:"password" yaml:"password"`
	InitialPassword string `mapstructure:"initial_password" yaml:"initial_password"`
	// Datasource and MQTTDatasource name the datasources created during setup.
	Datasource     string `mapstructure:"datasource" yaml:"datasource"`
	MQTTDatasource string `mapstructure:"mqtt_datasource" yaml:"mqtt_datasource"`
	HealthCheck    bool   `mapstructure:"health_check" yaml:"health_check"`
	DashboardsGlob string `mapstructure:"dashboards_glob" yaml:"dashboards_glob"`
}

type InfluxDBConfig struct {
	URL           string `mapstructure:"url" yaml:"url"`
	Username      string `mapstructure:"username" yaml:"username"`
	Password      string `mapstructure:"password" yaml:"password"`
	Org           string `mapstructure:"org" yaml:"org"`
	Bucket        string `mapstructure:"bucket" yaml:"bucket"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
	Token         string `mapstructure:"token" yaml:"token"`
}

type MQTTConfig struct {
	Broker          string        `mapstructure:"broker" yaml:"broker"`
	WebsocketURL    string        `mapstructure:"websocket_url" yaml:"websocket_url"`
	AdminUser       string        `mapstructure:"admin_user" yaml:"admin_user"`
	InitialPassword string        `mapstructure:"initial_password" yaml:"initial_password"`
	Password        string        `mapstructure:"password" yaml:"password"`
	User            string        `mapstructure:"user" yaml:"user"`
	SubscribeWait   time.Duration `mapstructure:"subscribe_timeout" yaml:"subscribe_timeout"`
	ResponseWait    time.Duration `mapstructure:"response_timeout" yaml:"response_timeout"`
}

type RestoreConfig struct {
	// DatasourceMapping is a list rather than a map because viper folds map
	// keys to lower case and datasource names are case sensitive.
	DatasourceMapping  []MappingRule     `mapstructure:"datasource_mapping" yaml:"datasource_mapping"`
	DefaultDatasource  string            `mapstructure:"default_datasource" yaml:"default_datasource"`
	RestoreDatasources bool              `mapstructure:"restore_datasources" yaml:"restore_datasources"`
	Overwrite          bool              `mapstructure:"overwrite" yaml:"overwrite"`
	FolderID           int               `mapstructure:"folder_id" yaml:"folder_id"`
}

// MappingRule renames a backup datasource to a target datasource.
type MappingRule struct {
	From string `mapstructure:"from" yaml:"from"`
	To   string `mapstructure:"to" yaml:"to"`
}

// MappingTable flattens the rules. Later rules win on duplicate From.
func (r RestoreConfig) MappingTable() map[string]string {
	out := make(map[string]string, len(r.DatasourceMapping))
	for _, rule := range r.DatasourceMapping {
		from := strings.TrimSpace(rule.From)
		if from == "" {
			continue
		}
		out[from] = strings.TrimSpace(rule.To)
	}
	return out
}

type BackupConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// Defaults returns the viper defaults. Every key is listed, even empty
// ones, so OBSKEEPER_* environment variables can reach it.
func Defaults() map[string]any {
	return map[string]any{
		"address":                     "localhost",
		"language":                    "en",
		"log_level":                   "info",
		"grafana.url":                 "",
		"grafana.user":                "admin",
		"grafana.password":            "",
		"grafana.initial_password":    "admin",
		"grafana.datasource":          "",
		"grafana.mqtt_datasource":     "",
		"grafana.health_check":        false,
		"grafana.dashboards_glob":     "dashboard*.json",
		"influxdb.url":                "",
		"influxdb.username":           "admin",
		"influxdb.password":           "",
		"influxdb.org":                "",
		"influxdb.bucket":             "",
		"influxdb.retention_days":     14,
		"influxdb.token":              "",
		"mqtt.broker":                 "",
		"mqtt.websocket_url":          "",
		"mqtt.admin_user":             "default",
		"mqtt.initial_password":       "defaultdefault",
		"mqtt.password":               "",
		"mqtt.user":                   "",
		"mqtt.subscribe_timeout":      "5s",
		"mqtt.response_timeout":       "20s",
		"restore.default_datasource":  "",
		"restore.restore_datasources": false,
		"restore.overwrite":           false,
		"restore.folder_id":           0,
		"backup.dir":                  ".",
	}
}

// GrafanaURL returns the configured Grafana base URL or the one derived
// from Address.
func (c Config) GrafanaURL() string {
	return orDerived(c.Grafana.URL, "http://%s:3000", c.Address)
}

// InfluxURL returns the configured InfluxDB base URL or the one derived
// from Address.
func (c Config) InfluxURL() string {
	return orDerived(c.InfluxDB.URL, "http://%s:8086", c.Address)
}

// BrokerURL returns the MQTT broker URL used for the control channel.
func (c Config) BrokerURL() string {
	return orDerived(c.MQTT.Broker, "tcp://%s:1883", c.Address)
}

// MQTTWebsocketURL is the broker URL handed to the Grafana MQTT datasource.
func (c Config) MQTTWebsocketURL() string {
	return orDerived(c.MQTT.WebsocketURL, "ws://%s:9001", c.Address)
}

// RetentionSeconds converts the configured retention to seconds.
func (c Config) RetentionSeconds() int {
	return c.InfluxDB.RetentionDays * 24 * 60 * 60
}

func orDerived(explicit, format, address string) string {
	if s := strings.TrimRight(strings.TrimSpace(explicit), "/"); s != "" {
		return s
	}
	return fmt.Sprintf(format, address)
}

// Require reports the first key among keys whose value is empty.
func (c Config) Require(keys ...string) error {
	values := map[string]string{
		"address":                  c.Address,
		"grafana.password":         c.Grafana.Password,
		"grafana.datasource":       c.Grafana.Datasource,
		"grafana.mqtt_datasource":  c.Grafana.MQTTDatasource,
		"influxdb.password":        c.InfluxDB.Password,
		"influxdb.org":             c.InfluxDB.Org,
		"influxdb.bucket":          c.InfluxDB.Bucket,
		"influxdb.token":           c.InfluxDB.Token,
		"mqtt.password":            c.MQTT.Password,
		"mqtt.user":                c.MQTT.User,
		"mqtt.initial_password":    c.MQTT.InitialPassword,
		"grafana.initial_password": c.Grafana.InitialPassword,
	}
	for _, k := range keys {
		v, known := values[k]
		if !known {
			return fmt.Errorf("unknown configuration key %q", k)
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", ErrMissingValue, k)
		}
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	out := c
	out.Grafana.Password = mask(c.Grafana.Password)
	out.Grafana.InitialPassword = mask(c.Grafana.InitialPassword)
	out.InfluxDB.Password = mask(c.InfluxDB.Password)
	out.InfluxDB.Token = mask(c.InfluxDB.Token)
	out.MQTT.Password = mask(c.MQTT.Password)
	out.MQTT.InitialPassword = mask(c.MQTT.InitialPassword)
	return out
}
