// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// LegacyConfigFile is the flat JSON file older installs kept next to the
// provisioning scripts. It is merged on top of the primary config.
const LegacyConfigFile = "config_data.json"

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Obskeeper")
		default:
			configDir = "/etc/obskeeper"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "obskeeper")
	}

	return filepath.Join(configDir, "obskeeper.yaml"), nil
}

var usedFile string

// ConfigFileUsed returns the primary config file read by the last
// LoadConfig call, or "".
func ConfigFileUsed() string { return usedFile }

// LoadConfig resolves T from defaults, config files, the legacy JSON file,
// OBSKEEPER_* environment variables and the command's flags, in increasing
// order of precedence.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, additionalConfigFilePath *string) (T, error) {
	var c T
	v := viper.New()

	// 1. Set defaults
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// 2. Set up file search paths
	v.SetConfigName("obskeeper")
	v.SetConfigType("yaml")

	// 3. An explicit --config path has the highest precedence among files.
	if additionalConfigFilePath != nil {
		v.SetConfigFile(*additionalConfigFilePath)
	}

	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	// 4. Read in the primary config file.
	notFound := false
	usedFile = ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = true
	} else {
		usedFile = v.ConfigFileUsed()
	}

	// 5. Merge config_data.json from the working directory if present.
	merged, err := mergeLegacyConfig(v, LegacyConfigFile)
	if err != nil {
		return c, err
	}

	// 6. Environment
	v.SetEnvPrefix("obskeeper")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 7. Flags
	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	if notFound && !merged {
		return c, viper.ConfigFileNotFoundError{}
	}
	return c, nil
}

// legacyKeys maps config_data.json keys to nested viper keys.
var legacyKeys = map[string]string{
	"address":                 "address",
	"grafana_psw":             "grafana.password",
	"grafana_datasource":      "grafana.datasource",
	"mqtt_datasource":         "grafana.mqtt_datasource",
	"influxdb_psw":            "influxdb.password",
	"influxdb_org":            "influxdb.org",
	"influxdb_bucket":         "influxdb.bucket",
	"influxdb_retention_days": "influxdb.retention_days",
	"influxdb_token":          "influxdb.token",
	"mqtt_user":               "mqtt.user",
	"mqtt_psw":                "mqtt.password",
	"defaultDatasource":       "restore.default_datasource",
}

// mergeLegacyConfig translates the flat legacy file into the nested layout
// and merges it. A missing file is not an error; a malformed one is.
func mergeLegacyConfig(v *viper.Viper, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}

	nested := map[string]any{}
	for legacy, key := range legacyKeys {
		if val, ok := flat[legacy]; ok {
			setNested(nested, key, val)
		}
	}
	if raw, ok := flat["datasourceMapping"].(map[string]any); ok {
		setNested(nested, "restore.datasource_mapping", legacyMappingRules(raw))
	}

	if err := v.MergeConfigMap(nested); err != nil {
		return false, err
	}
	return true, nil
}

func legacyMappingRules(raw map[string]any) []map[string]any {
	from := make([]string, 0, len(raw))
	for k := range raw {
		from = append(from, k)
	}
	sort.Strings(from)
	rules := make([]map[string]any, 0, len(from))
	for _, k := range from {
		to, _ := raw[k].(string)
		rules = append(rules, map[string]any{"from": k, "to": to})
	}
	return rules
}

func setNested(m map[string]any, dotted string, val any) {
	parts := strings.Split(dotted, ".")
	cur := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = val
}

// WriteConfigFile persists c as YAML to the user (or system) config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the file carries service passwords and tokens.
	return os.WriteFile(path, data, 0600)
}
