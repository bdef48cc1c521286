// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package dashboard

import (
	"strings"

	"github.com/samber/lo"
	"github.com/toeirei/obskeeper/internal/logging"
	"github.com/toeirei/obskeeper/internal/model"
)

// BuiltinDatasource is Grafana's reserved "-- Grafana --" datasource. It
// exists on every instance and is never remapped.
const BuiltinDatasource = "-- Grafana --"

// TargetNameSet holds the datasource names present on the restore target.
type TargetNameSet map[string]struct{}

// NewTargetNameSet builds a set from names, trimming each one.
func NewTargetNameSet(names ...string) TargetNameSet {
	return lo.SliceToMap(names, func(n string) (string, struct{}) {
		return strings.TrimSpace(n), struct{}{}
	})
}

// TargetNamesFromRecords collects the names of records that carry one.
func TargetNamesFromRecords(records []model.DatasourceRecord) TargetNameSet {
	names := lo.FilterMap(records, func(r model.DatasourceRecord, _ int) (string, bool) {
		_, has := r["name"]
		return r.Name(), has
	})
	return NewTargetNameSet(names...)
}

// Has reports whether name is present.
func (s TargetNameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// BackupMapping maps backup datasource uid to backup datasource name. It is
// consulted only for references that carry no inline name.
type BackupMapping map[string]string

// NewBackupMapping indexes records that have both a uid and a name key.
func NewBackupMapping(records []model.DatasourceRecord) BackupMapping {
	m := BackupMapping{}
	for _, r := range records {
		_, hasUID := r["uid"]
		_, hasName := r["name"]
		if hasUID && hasName {
			m[r.UID()] = r.Name()
		}
	}
	return m
}

// Source tells which rule produced a Resolution.
type Source int

const (
	SourceBuiltin Source = iota
	SourceDirect
	SourceMapped
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceDirect:
		return "direct"
	case SourceMapped:
		return "mapped"
	case SourceDefault:
		return "default"
	}
	return "unknown"
}

// Resolution is the outcome of resolving one Unresolved reference.
type Resolution struct {
	Name string
	// Candidate is the backup-side name the decision was made on.
	Candidate string
	Source    Source
}

// Resolver decides which target datasource an object reference becomes.
// Its tables are read-only for the duration of a restore run.
type Resolver struct {
	Targets TargetNameSet
	Backup  BackupMapping
	// Mapping renames backup datasource names to target names.
	Mapping map[string]string
	// Default is used when nothing else matches. It may be "".
	Default string
	// Warnf receives fallback diagnostics. Nil means logging.Warnf.
	Warnf func(format string, args ...any)
}

func (r *Resolver) warnf(format string, args ...any) {
	if r.Warnf != nil {
		r.Warnf(format, args...)
		return
	}
	logging.Warnf(format, args...)
}

// Candidate derives the backup-side name of ref: its name, else the name
// its uid had in the backup, else its type.
func (r *Resolver) Candidate(ref Unresolved) string {
	name, _ := ref.Name()
	if name == "" {
		if uid, ok := ref.UID(); ok {
			name = strings.TrimSpace(r.Backup[uid])
		}
	}
	if name == "" {
		if typ, ok := ref.Type(); ok {
			name = typ
		}
	}
	return name
}

// Resolve applies the fallback chain to ref:
//
//  1. uid "-- Grafana --" stays the builtin datasource
//  2. the candidate name, if the target has it
//  3. the configured mapping of the candidate, if the target has that
//  4. Default, with a warning
func (r *Resolver) Resolve(ref Unresolved) Resolution {
	if uid, _ := ref.UID(); uid == BuiltinDatasource {
		return Resolution{Name: BuiltinDatasource, Candidate: BuiltinDatasource, Source: SourceBuiltin}
	}

	candidate := r.Candidate(ref)
	if r.Targets.Has(candidate) {
		return Resolution{Name: candidate, Candidate: candidate, Source: SourceDirect}
	}

	if mapped, ok := r.Mapping[candidate]; ok {
		mapped = strings.TrimSpace(mapped)
		if r.Targets.Has(mapped) {
			return Resolution{Name: mapped, Candidate: candidate, Source: SourceMapped}
		}
		r.warnf("mapped target datasource %q for backup datasource %q not found in target, using default %q", mapped, candidate, r.Default)
		return Resolution{Name: r.Default, Candidate: candidate, Source: SourceDefault}
	}

	r.warnf("datasource %q not found in target and no mapping provided, using default %q", candidate, r.Default)
	return Resolution{Name: r.Default, Candidate: candidate, Source: SourceDefault}
}

// RemapStats counts how the references of one document were resolved.
type RemapStats struct {
	Builtin   int
	Direct    int
	Mapped    int
	Defaulted int
}

// Total is the number of references rewritten.
func (s RemapStats) Total() int {
	return s.Builtin + s.Direct + s.Mapped + s.Defaulted
}

// Add returns the element-wise sum of s and o.
func (s RemapStats) Add(o RemapStats) RemapStats {
	return RemapStats{
		Builtin:   s.Builtin + o.Builtin,
		Direct:    s.Direct + o.Direct,
		Mapped:    s.Mapped + o.Mapped,
		Defaulted: s.Defaulted + o.Defaulted,
	}
}

// Remap rewrites every object-valued "datasource" field anywhere in doc to
// the name chosen by Resolve. Fields that already hold a string, including
// "", are not touched or validated.
func (r *Resolver) Remap(doc map[string]any) RemapStats {
	var stats RemapStats
	WalkRefs(doc, func(holder map[string]any, ref Ref) {
		u, ok := ref.(Unresolved)
		if !ok {
			return
		}
		res := r.Resolve(u)
		holder[DatasourceKey] = res.Name
		switch res.Source {
		case SourceBuiltin:
			stats.Builtin++
		case SourceDirect:
			stats.Direct++
		case SourceMapped:
			stats.Mapped++
		default:
			stats.Defaulted++
		}
	})
	return stats
}

// Backfill repairs panels whose own datasource is "" while their query
// targets carry the real reference: the first target with a non-empty
// string datasource, or an object datasource with a non-empty name,
// supplies the panel value. Panels without a usable target keep "". It
// returns the number of panels repaired.
func Backfill(doc map[string]any) int {
	fixed := 0
	WalkPanels(doc, func(panel map[string]any) {
		if ds, ok := panel[DatasourceKey].(string); !ok || ds != "" {
			return
		}
		for _, target := range mapsIn(panel["targets"]) {
			ref, ok := ParseRef(target[DatasourceKey])
			if !ok {
				continue
			}
			var name string
			switch v := ref.(type) {
			case Resolved:
				name = string(v)
			case Unresolved:
				name, _ = v.Name()
			}
			if name != "" {
				panel[DatasourceKey] = name
				fixed++
				return
			}
		}
	})
	return fixed
}

// Restore runs Remap then Backfill on doc.
func (r *Resolver) Restore(doc map[string]any) (RemapStats, int) {
	stats := r.Remap(doc)
	return stats, Backfill(doc)
}
