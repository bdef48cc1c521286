// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core contains the UI-agnostic backup, restore, import and
// provisioning flows. Remote services are reached through the small
// interfaces in interfaces.go so the CLI can inject real clients and tests
// can inject fakes.
//
// Every flow is strictly sequential: one remote call at a time, each item
// fully processed before the next one starts. Bulk loops log and record a
// failed item and move on; single-shot calls return their error.
package core
