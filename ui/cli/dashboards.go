// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"github.com/spf13/cobra"
	"github.com/toeirei/obskeeper/internal/core"
	"github.com/toeirei/obskeeper/internal/i18n"
)

func newDashboardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboards",
		Short: "Work with dashboard files",
	}

	var folderID int
	var overwrite bool
	importCmd := &cobra.Command{
		Use:   "import [glob]",
		Short: "Import exported dashboard JSON files into Grafana",
		Long: `Imports every file matching the glob (default grafana.dashboards_glob,
"dashboard*.json") in name order. A non-null id is set to null and version is
reset to 0. Files that cannot be parsed or submitted are reported and
skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureGrafanaPassword(cmd, &appConfig); err != nil {
				return err
			}
			opts := core.ImportOptions{
				Glob:      appConfig.Grafana.DashboardsGlob,
				FolderID:  appConfig.Restore.FolderID,
				Overwrite: appConfig.Restore.Overwrite,
			}
			if len(args) == 1 {
				opts.Glob = args[0]
			}
			if cmd.Flags().Changed("folder-id") {
				opts.FolderID = folderID
			}
			if cmd.Flags().Changed("overwrite") {
				opts.Overwrite = overwrite
			}

			results, err := core.RunImportDashboardsCmd(cmd.Context(), newGrafanaClient(&appConfig), opts, newReporter(cmd))
			if err != nil {
				return err
			}
			renderResults(cmd.OutOrStdout(), i18n.T("import.summary_title"), importLines(results))
			return nil
		},
	}
	importCmd.Flags().IntVar(&folderID, "folder-id", 0, "Target folder id")
	importCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing dashboards with the same title")

	cmd.AddCommand(importCmd)
	return cmd
}
