// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toeirei/obskeeper/internal/config"
	"github.com/toeirei/obskeeper/internal/core"
	"github.com/toeirei/obskeeper/internal/i18n"
	"github.com/toeirei/obskeeper/internal/model"
)

// restoreOptions builds core options from the config, letting explicitly
// set flags win.
func restoreOptions(cmd *cobra.Command, cfg *config.Config) core.RestoreOptions {
	rc := cfg.Restore
	opts := core.RestoreOptions{
		Mapping:           rc.MappingTable(),
		DefaultDatasource: rc.DefaultDatasource,
		FolderID:          rc.FolderID,
		Overwrite:         rc.Overwrite,
		Datasources:       rc.RestoreDatasources,
	}
	f := cmd.Flags()
	if f.Changed("overwrite") {
		opts.Overwrite, _ = f.GetBool("overwrite")
	}
	if f.Changed("folder-id") {
		opts.FolderID, _ = f.GetInt("folder-id")
	}
	if f.Changed("datasources") {
		opts.Datasources, _ = f.GetBool("datasources")
	}
	if f.Changed("default-datasource") {
		opts.DefaultDatasource, _ = f.GetString("default-datasource")
	}
	return opts
}

func newRestoreCmd() *cobra.Command {
	var dir, archive string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore dashboards (and optionally datasources) into Grafana",
		Long: `Reads a backup and submits every dashboard to the target Grafana.

Each datasource reference is resolved against the datasources that exist on
the target: a matching name is kept, otherwise restore.datasource_mapping is
consulted, otherwise restore.default_datasource is used. The built-in
"-- Grafana --" datasource is never remapped. Dashboard id and uid are
cleared and version reset so the target assigns its own.

A dashboard that fails to submit is reported and the next one is still
attempted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureGrafanaPassword(cmd, &appConfig); err != nil {
				return err
			}
			opts := restoreOptions(cmd, &appConfig)

			var data *model.BackupData
			var err error
			if archive != "" {
				data, err = core.ReadArchiveFile(archive)
			} else {
				if dir == "" {
					dir = appConfig.Backup.Dir
				}
				data, err = core.LoadBackup(core.FileStore{Dir: dir}, opts.Datasources)
			}
			if err != nil {
				return err
			}

			rpt, err := core.RunRestoreCmd(cmd.Context(), newGrafanaClient(&appConfig), data, opts, newReporter(cmd))
			out := cmd.OutOrStdout()
			renderResults(out, i18n.T("restore.datasources_title"), datasourceLines(rpt.Datasources))
			if err != nil {
				return err
			}
			renderResults(out, i18n.T("restore.dashboards_title"), dashboardLines(rpt.Dashboards))
			fmt.Fprintln(out, i18n.T("restore.stats", rpt.Stats.Direct, rpt.Stats.Mapped, rpt.Stats.Defaulted, rpt.Stats.Builtin, rpt.Backfilled))
			if rpt.Skipped > 0 {
				fmt.Fprintln(out, i18n.T("restore.skipped", rpt.Skipped))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory holding datasources.json and dashboards.json (default backup.dir)")
	cmd.Flags().StringVar(&archive, "archive", "", "Restore from a zstd archive written by 'backup --archive'")
	cmd.Flags().Bool("datasources", false, "Re-create the backed-up datasources before restoring dashboards")
	cmd.Flags().Bool("overwrite", false, "Replace existing dashboards with the same title")
	cmd.Flags().Int("folder-id", 0, "Target folder id")
	cmd.Flags().String("default-datasource", "", "Datasource for references that cannot be resolved")
	return cmd
}
