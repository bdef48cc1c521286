// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.
package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindUsedKeys(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), `package a
func f() {
	_ = i18n.T("backup.summary_title")
	report(rep, "backup.dashboard_done", title)
	report(p.rep(), "setup.step_start", name)
}`)
	writeFile(t, filepath.Join(root, "a_test.go"), `package a
var _ = i18n.T("test.only")`)
	writeFile(t, filepath.Join(root, "tools", "x.go"), `package x
var _ = i18n.T("tools.only")`)

	keys, err := findUsedKeys(root)
	if err != nil {
		t.Fatalf("findUsedKeys: %v", err)
	}
	for _, k := range []string{"backup.summary_title", "backup.dashboard_done", "setup.step_start"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("expected %s to be found", k)
		}
	}
	for _, k := range []string{"test.only", "tools.only"} {
		if _, ok := keys[k]; ok {
			t.Errorf("did not expect %s", k)
		}
	}
}

func TestLoadKeysFromLocale(t *testing.T) {
	p := filepath.Join(t.TempDir(), "active.en.yaml")
	writeFile(t, p, "top:\n  sub: value\nflat: v\n")
	keys, err := loadKeysFromLocale(p)
	if err != nil {
		t.Fatalf("loadKeysFromLocale: %v", err)
	}
	for _, k := range []string{"top.sub", "flat"} {
		if _, ok := keys[k]; !ok {
			t.Errorf("expected %s in keys", k)
		}
	}
}

func TestRun_DetectsMissingSecondaryKey(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), `package a
var _ = i18n.T("a.b")`)
	writeFile(t, filepath.Join(root, localesDir, "active.en.yaml"), "a:\n  b: x\n  c: y\n")
	writeFile(t, filepath.Join(root, localesDir, "active.de.yaml"), "a:\n  b: x\n")

	if err := run(root); err == nil {
		t.Fatalf("expected error for missing de key")
	}

	writeFile(t, filepath.Join(root, localesDir, "active.de.yaml"), "a:\n  b: x\n  c: y\n")
	if err := run(root); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
