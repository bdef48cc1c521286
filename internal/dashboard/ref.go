// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package dashboard

import "strings"

// DatasourceKey is the field name holding a datasource reference.
const DatasourceKey = "datasource"

// Ref is a parsed datasource reference. It is either Resolved (a plain
// datasource name) or Unresolved (the object form carrying uid/name/type).
type Ref interface {
	isRef()
}

// Resolved is a reference already expressed as a datasource name. The
// empty string is a valid, if unhelpful, Resolved value.
type Resolved string

// Unresolved is the object form of a reference, e.g.
// {"uid": "P8E80F9AEF21F6940", "type": "influxdb"}.
type Unresolved map[string]any

func (Resolved) isRef()   {}
func (Unresolved) isRef() {}

// ParseRef classifies the raw value of a "datasource" field. ok is false
// for anything that is neither a string nor an object (null, numbers).
func ParseRef(v any) (ref Ref, ok bool) {
	switch t := v.(type) {
	case string:
		return Resolved(t), true
	case map[string]any:
		return Unresolved(t), true
	}
	return nil, false
}

func (u Unresolved) field(key string) (string, bool) {
	raw, present := u[key]
	if !present {
		return "", false
	}
	s, _ := raw.(string)
	return strings.TrimSpace(s), true
}

// UID returns the trimmed uid and whether the key is present at all.
func (u Unresolved) UID() (string, bool) { return u.field("uid") }

// Name returns the trimmed name and whether the key is present at all.
func (u Unresolved) Name() (string, bool) { return u.field("name") }

// Type returns the trimmed plugin type and whether the key is present.
func (u Unresolved) Type() (string, bool) { return u.field("type") }

// RawName returns the name exactly as stored, or "" when absent or not a
// string.
func (u Unresolved) RawName() string {
	s, _ := u["name"].(string)
	return s
}
