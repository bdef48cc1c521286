// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/toeirei/obskeeper/internal/logging"
	"github.com/toeirei/obskeeper/internal/model"
)

// DefaultDashboardGlob matches exported dashboard files.
const DefaultDashboardGlob = "dashboard*.json"

// ErrNoDashboardFiles is returned when the import glob matches nothing.
var ErrNoDashboardFiles = errors.New("no dashboard files found")

// ImportResult is the outcome for one imported file.
type ImportResult struct {
	File     string
	Title    string
	Response model.SaveDashboardResponse
	Err      error
}

// ImportOptions controls a file import.
type ImportOptions struct {
	Glob      string
	FolderID  int
	Overwrite bool
}

// prepareFileDashboard resets the fields Grafana assigns itself. A
// non-null id becomes null and an existing version becomes 0.
func prepareFileDashboard(doc map[string]any) {
	if id, ok := doc["id"]; ok && id != nil {
		doc["id"] = nil
	}
	if _, ok := doc["version"]; ok {
		doc["version"] = 0
	}
}

// RunImportDashboardsCmd imports every file matching opts.Glob in name
// order. Unreadable files and failed submits are logged and skipped.
func RunImportDashboardsCmd(ctx context.Context, api DashboardAPI, opts ImportOptions, rep Reporter) ([]ImportResult, error) {
	rep = reporterOrNop(rep)
	pattern := opts.Glob
	if pattern == "" {
		pattern = DefaultDashboardGlob
	}
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard glob %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDashboardFiles, pattern)
	}
	sort.Strings(files)

	results := make([]ImportResult, 0, len(files))
	for _, file := range files {
		res := ImportResult{File: file}
		report(rep, "import.file_start", file)

		doc, err := readDashboardFile(file)
		if err != nil {
			logging.Errorf("%v", err)
			res.Err = err
			results = append(results, res)
			continue
		}
		res.Title, _ = doc["title"].(string)
		prepareFileDashboard(doc)

		resp, err := api.SaveDashboard(ctx, model.SaveDashboardRequest{
			Dashboard: doc,
			FolderID:  opts.FolderID,
			Overwrite: opts.Overwrite,
		})
		res.Response = resp
		if err != nil {
			logging.Errorf("failed to import %s: %v", file, err)
			res.Err = err
		} else {
			report(rep, "import.file_done", file, resp.Status)
		}
		results = append(results, res)
	}
	return results, nil
}

func readDashboardFile(file string) (map[string]any, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", file, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from %s: %w", file, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s does not contain a dashboard object", file)
	}
	return doc, nil
}
