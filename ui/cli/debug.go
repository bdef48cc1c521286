// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/toeirei/obskeeper/internal/config"
	"github.com/toeirei/obskeeper/internal/logging"
)

func newDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Dump the effective configuration (secrets redacted), flags and environment",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "--- OBSKEEPER DEBUG ---")
			fmt.Fprintf(out, "Config file used: %s\n", config.ConfigFileUsed())

			redacted := appConfig.Redacted()
			b, err := yaml.Marshal(&redacted)
			if err != nil {
				logging.Errorf("could not marshal config: %v", err)
			} else {
				fmt.Fprintln(out, "-- effective config --")
				fmt.Fprint(out, string(b))
			}

			fmt.Fprintln(out, "-- derived urls --")
			fmt.Fprintf(out, "grafana: %s\ninfluxdb: %s\nmqtt: %s\nmqtt websocket: %s\n",
				appConfig.GrafanaURL(), appConfig.InfluxURL(), appConfig.BrokerURL(), appConfig.MQTTWebsocketURL())

			fmt.Fprintln(out, "-- flags --")
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				fmt.Fprintf(out, "%s = %s\n", f.Name, f.Value.String())
			})

			fmt.Fprintln(out, "-- environment (OBSKEEPER_*) --")
			var env []string
			for _, e := range os.Environ() {
				if strings.HasPrefix(e, "OBSKEEPER_") {
					env = append(env, redactEnv(e))
				}
			}
			sort.Strings(env)
			for _, e := range env {
				fmt.Fprintln(out, e)
			}
			fmt.Fprintln(out, "--- END DEBUG ---")
		},
	}
}

func redactEnv(kv string) string {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || v == "" {
		return kv
	}
	upper := strings.ToUpper(k)
	if strings.Contains(upper, "PASSWORD") || strings.Contains(upper, "TOKEN") {
		return k + "=********"
	}
	return kv
}
