// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/obskeeper/internal/broker"
	"github.com/toeirei/obskeeper/internal/config"
	"github.com/toeirei/obskeeper/internal/core"
	"github.com/toeirei/obskeeper/internal/grafana"
	"github.com/toeirei/obskeeper/internal/i18n"
	"github.com/toeirei/obskeeper/internal/influx"
	"golang.org/x/term"
)

func newGrafanaClient(cfg *config.Config) *grafana.Client {
	return grafana.New(cfg.GrafanaURL(), cfg.Grafana.User, cfg.Grafana.Password)
}

// dialBroker opens a control session with the initial admin credentials.
// Tests replace it.
var dialBroker = func(ctx context.Context, cfg *config.Config) (core.BrokerControl, error) {
	client, err := broker.Dial(ctx, broker.DialOptions{
		URL:      cfg.BrokerURL(),
		ClientID: broker.ControlClientID,
		Username: cfg.MQTT.AdminUser,
		Password: cfg.MQTT.InitialPassword,
	})
	if err != nil {
		return nil, err
	}
	ctl := broker.NewControl(client, nil)
	if cfg.MQTT.SubscribeWait > 0 {
		ctl.SubscribeTimeout = cfg.MQTT.SubscribeWait
	}
	if cfg.MQTT.ResponseWait > 0 {
		ctl.ResponseTimeout = cfg.MQTT.ResponseWait
	}
	return ctl, nil
}

var newInfluxClient = func(cfg *config.Config) core.InfluxSetup {
	return influx.New(cfg.InfluxURL(), nil)
}

// cliReporter prints core progress lines to the command's output.
type cliReporter struct{ w io.Writer }

func (r cliReporter) Reportf(format string, args ...any) {
	fmt.Fprintf(r.w, format+"\n", args...)
}

func newReporter(cmd *cobra.Command) core.Reporter {
	return cliReporter{w: cmd.OutOrStdout()}
}

// isTerminal reports whether stdin is interactive. Tests replace it.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// ensureGrafanaPassword prompts for the Grafana password when none is
// configured and stdin is a terminal.
func ensureGrafanaPassword(cmd *cobra.Command, cfg *config.Config) error {
	if strings.TrimSpace(cfg.Grafana.Password) != "" {
		return nil
	}
	if !isTerminal() {
		return cfg.Require("grafana.password")
	}
	fmt.Fprint(cmd.ErrOrStderr(), i18n.T("prompt.grafana_password", cfg.Grafana.User, cfg.GrafanaURL()))
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("could not read password: %w", err)
	}
	cfg.Grafana.Password = strings.TrimSpace(string(pw))
	return cfg.Require("grafana.password")
}
