// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/toeirei/obskeeper/internal/config"
	"github.com/toeirei/obskeeper/internal/core"
	"github.com/toeirei/obskeeper/internal/i18n"
	"github.com/toeirei/obskeeper/internal/model"
)

func newProvisioner(cmd *cobra.Command, cfg *config.Config) *core.Provisioner {
	client := newGrafanaClient(cfg)
	return &core.Provisioner{
		Config:         cfg,
		Grafana:        client,
		GrafanaInitial: client.WithPassword(cfg.Grafana.InitialPassword),
		Influx:         newInfluxClient(cfg),
		DialBroker: func(ctx context.Context) (core.BrokerControl, error) {
			return dialBroker(ctx, cfg)
		},
		LoadBackup: func() (*model.BackupData, error) {
			return core.LoadBackup(core.FileStore{Dir: cfg.Backup.Dir}, cfg.Restore.RestoreDatasources)
		},
		Reporter: newReporter(cmd),
	}
}

func newSetupCmd() *cobra.Command {
	var steps []string
	var list bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision a fresh stack",
		Long: `Runs the provisioning steps in order and stops at the first failure:

  influxdb-setup       onboard InfluxDB (org, bucket, retention, token)
  grafana-password     change the Grafana admin password from the initial one
  mqtt-password        change the broker admin password (opt-in)
  influxdb-datasource  create the InfluxDB datasource and health check it
  mqtt-datasource      create the MQTT datasource
  restore              restore dashboards from the backup dir

Without --steps every step except mqtt-password runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p := newProvisioner(cmd, &appConfig)
			if list {
				for _, s := range p.Steps() {
					mark := " "
					if slices.Contains(core.DefaultSteps, s.Name) {
						mark = "*"
					}
					fmt.Fprintf(out, "%s %s\n", mark, s.Name)
				}
				return nil
			}

			if err := ensureGrafanaPassword(cmd, &appConfig); err != nil {
				return err
			}
			// The provisioner captured the config before a prompted password.
			p = newProvisioner(cmd, &appConfig)

			results, err := core.RunSetupCmd(cmd.Context(), p, steps)
			renderResults(out, i18n.T("setup.summary_title"), stepLines(results))
			return err
		},
	}
	cmd.Flags().StringSliceVar(&steps, "steps", nil, "Comma-separated steps to run (default: all but mqtt-password)")
	cmd.Flags().BoolVar(&list, "list", false, "List the available steps and exit")
	return cmd
}
