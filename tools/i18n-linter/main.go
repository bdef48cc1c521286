// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks that every message id used by the Go sources exists in
// the primary locale, that no locale lacks a key of the primary one and
// reports keys nobody uses.
//
// Usage:
//
//	go run ./tools/i18n-linter
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "active.en.yaml"
)

// usedKeyRe matches i18n.T("id", ...) and the core report(rep, "id", ...) helper.
var usedKeyRe = regexp.MustCompile(`(?:i18n\.T\(|report\([^,()]*(?:\(\))?,\s*)"([a-z_]+(?:\.[a-z_]+)+)"`)

func main() {
	if err := run("."); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func run(root string) error {
	used, err := findUsedKeys(root)
	if err != nil {
		return fmt.Errorf("scanning sources: %w", err)
	}
	fmt.Printf("✅ Found %d translation keys used in source code.\n", len(used))

	primary, err := loadKeysFromLocale(filepath.Join(root, localesDir, primaryLocale))
	if err != nil {
		return fmt.Errorf("loading primary locale: %w", err)
	}

	failed := false
	if missing := difference(used, primary); len(missing) > 0 {
		failed = true
		fmt.Println("--- Keys used in code but missing from the primary locale ---")
		for _, k := range missing {
			fmt.Printf("  - Missing: %s\n", k)
		}
	}
	if orphaned := difference(primary, used); len(orphaned) > 0 {
		fmt.Println("--- Keys in the primary locale not used in code ---")
		for _, k := range orphaned {
			fmt.Printf("  - Orphaned: %s\n", k)
		}
	}

	files, err := filepath.Glob(filepath.Join(root, localesDir, "*.yaml"))
	if err != nil {
		return err
	}
	for _, f := range files {
		if filepath.Base(f) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(f)
		if err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
		if missing := difference(primary, keys); len(missing) > 0 {
			failed = true
			fmt.Printf("--- %s lacks %d keys ---\n", filepath.Base(f), len(missing))
			for _, k := range missing {
				fmt.Printf("  - Missing: %s\n", k)
			}
		}
	}

	if failed {
		return fmt.Errorf("translation catalogs are inconsistent")
	}
	fmt.Println("✅ All translation files are consistent!")
	return nil
}

// findUsedKeys scans non-test .go files below root for message ids.
func findUsedKeys(root string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "tools" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range usedKeyRe.FindAllStringSubmatch(string(content), -1) {
			keys[m[1]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML catalog and returns its dot-joined keys.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

func flattenYAML(prefix string, node any, keys map[string]struct{}) {
	m, ok := node.(map[string]any)
	if !ok {
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
		return
	}
	for k, v := range m {
		next := k
		if prefix != "" {
			next = prefix + "." + k
		}
		flattenYAML(next, v, keys)
	}
}

// difference returns the sorted keys of a that are not in b.
func difference(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
