// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/obskeeper/internal/core"
	"github.com/toeirei/obskeeper/internal/i18n"
)

func newBackupCmd() *cobra.Command {
	var dir, output string
	var archive bool

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export Grafana datasources and dashboards",
		Long: `Exports every datasource (without its server-assigned id) to datasources.json
and every dashboard to dashboards.json. Panel datasource references are
flattened to plain datasource names on the way out.

With --archive both are bundled into a single Zstandard-compressed JSON file
instead.

Examples:
  # Write datasources.json and dashboards.json to the backup dir
  obskeeper backup

  # Write obskeeper-backup-YYYY-MM-DD.json.zst
  obskeeper backup --archive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureGrafanaPassword(cmd, &appConfig); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			api := newGrafanaClient(&appConfig)

			data, rpt, err := core.RunBackupCmd(cmd.Context(), api, api.BaseURL(), newReporter(cmd))
			if err != nil {
				return err
			}

			if archive || output != "" {
				name := output
				if name == "" {
					name = core.DefaultArchiveName(time.Now())
				}
				name = core.ArchiveName(name)
				if err := core.WriteArchiveFile(name, data); err != nil {
					return err
				}
				fmt.Fprintln(out, i18n.T("backup.archive_written", name))
			} else {
				if dir == "" {
					dir = appConfig.Backup.Dir
				}
				st := core.FileStore{Dir: dir}
				if err := st.Save(data); err != nil {
					return err
				}
				fmt.Fprintln(out, i18n.T("backup.files_written", st.DatasourcesPath(), st.DashboardsPath()))
			}

			renderResults(out, i18n.T("backup.summary_title"), dashboardLines(rpt.Dashboards))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory for datasources.json and dashboards.json (default backup.dir)")
	cmd.Flags().BoolVar(&archive, "archive", false, "Write a single zstd-compressed archive instead of JSON files")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive file name (implies --archive)")
	return cmd
}
