// Copyright (c) 2026 Obskeeper Team
// Obskeeper - observability stack provisioning and backup
// This source code is licensed under the MIT license found in the LICENSE file.

package broker

import (
	"fmt"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/toeirei/obskeeper/internal/logging"
)

// pahoLogger routes paho's internal logging into obskeeper's logger.
type pahoLogger struct {
	logf func(format string, args ...any)
}

func (l pahoLogger) Printf(format string, args ...any) {
	l.logf("mqtt: "+format, args...)
}

func (l pahoLogger) Println(args ...any) {
	l.logf("mqtt: %s", strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

var installLogging sync.Once

// InstallLogging wires paho's package-level loggers once per process.
func InstallLogging() {
	installLogging.Do(func() {
		mqtt.CRITICAL = pahoLogger{logf: logging.Errorf}
		mqtt.ERROR = pahoLogger{logf: logging.Errorf}
		mqtt.WARN = pahoLogger{logf: logging.Warnf}
		mqtt.DEBUG = pahoLogger{logf: logging.Debugf}
	})
}
