// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Obskeeper using Cobra.
// It wires configuration and the service clients and provides commands that
// delegate to the `core` facades. CLI code should remain thin and delegate
// business logic to `core`.
package cli
