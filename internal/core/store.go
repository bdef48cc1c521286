// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/toeirei/obskeeper/internal/model"
)

const (
	DatasourcesFile = "datasources.json"
	DashboardsFile  = "dashboards.json"
)

// ErrBackupNotFound is returned when an expected backup file is missing.
var ErrBackupNotFound = errors.New("backup file not found")

// FileStore reads and writes the plain JSON working set in Dir.
type FileStore struct {
	Dir string
}

func (s FileStore) path(name string) string {
	if s.Dir == "" {
		return name
	}
	return filepath.Join(s.Dir, name)
}

// DatasourcesPath is the location of datasources.json.
func (s FileStore) DatasourcesPath() string { return s.path(DatasourcesFile) }

// DashboardsPath is the location of dashboards.json.
func (s FileStore) DashboardsPath() string { return s.path(DashboardsFile) }

func writeJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not decode %s: %w", path, err)
	}
	return nil
}

func (s FileStore) WriteDatasources(ds []model.DatasourceRecord) error {
	if ds == nil {
		ds = []model.DatasourceRecord{}
	}
	return writeJSONFile(s.DatasourcesPath(), ds)
}

func (s FileStore) ReadDatasources() ([]model.DatasourceRecord, error) {
	var ds []model.DatasourceRecord
	err := readJSONFile(s.DatasourcesPath(), &ds)
	return ds, err
}

func (s FileStore) WriteDashboards(d []model.DashboardEnvelope) error {
	if d == nil {
		d = []model.DashboardEnvelope{}
	}
	return writeJSONFile(s.DashboardsPath(), d)
}

func (s FileStore) ReadDashboards() ([]model.DashboardEnvelope, error) {
	var d []model.DashboardEnvelope
	err := readJSONFile(s.DashboardsPath(), &d)
	return d, err
}

// Save writes both files of data.
func (s FileStore) Save(data *model.BackupData) error {
	if err := s.WriteDatasources(data.Datasources); err != nil {
		return err
	}
	return s.WriteDashboards(data.Dashboards)
}

// DefaultArchiveName returns e.g. obskeeper-backup-2026-10-17.json.zst.
func DefaultArchiveName(now time.Time) string {
	return fmt.Sprintf("obskeeper-backup-%s.json.zst", now.Format("2006-01-02"))
}

// ArchiveName appends .zst when missing.
func ArchiveName(name string) string {
	if strings.HasSuffix(name, ".zst") {
		return name
	}
	return name + ".zst"
}

// WriteArchive streams data as zstd-compressed JSON.
func WriteArchive(w io.Writer, data *model.BackupData) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}
	return zw.Close()
}

// ReadArchive decodes an archive written by WriteArchive.
func ReadArchive(r io.Reader) (*model.BackupData, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zr.Close()

	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}
	if data.SchemaVersion > model.BackupSchemaVersion {
		return nil, fmt.Errorf("archive schema version %d is newer than supported version %d", data.SchemaVersion, model.BackupSchemaVersion)
	}
	return &data, nil
}

// WriteArchiveFile writes data to filename.
func WriteArchiveFile(filename string, data *model.BackupData) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	if err := WriteArchive(f, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadArchiveFile reads an archive from filename.
func ReadArchiveFile(filename string) (*model.BackupData, error) {
	f, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadArchive(f)
}
