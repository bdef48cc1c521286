// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Obskeeper.
//
// Usage:
//
//	go run . [command] [flags]
//	./obskeeper backup --archive
//
// See --help for the available commands.
package main

import (
	"os"

	"github.com/toeirei/obskeeper/internal/logging"
	"github.com/toeirei/obskeeper/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}
