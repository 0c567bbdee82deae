// SPDX-License-Identifier: BSD-3-Clause

package obslog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats-server/v2/server"
)

// natsLogger adapts a slog.Logger to the NATS server.Logger interface so
// the broker pkg/bus embeds logs through the same fan-out pipeline as the
// rest of the process instead of its own stderr writer.
type natsLogger struct {
	l *slog.Logger
}

// NewNATSLogger wraps l for use with server.SetLoggerV2. Every line is
// stamped subsystem=nats plus the broker's own severity, since NATS
// distinguishes notice and trace levels slog has no direct equivalent
// for: notice folds to Info, fatal to Error, trace to Debug.
func NewNATSLogger(l *slog.Logger) server.Logger {
	return &natsLogger{l: l.With("subsystem", "nats")}
}

func (n *natsLogger) logf(level slog.Level, natsLevel, format string, v ...any) {
	n.l.Log(context.Background(), level, fmt.Sprintf(format, v...), "nats_level", natsLevel)
}

func (n *natsLogger) Fatalf(format string, v ...any) { n.logf(slog.LevelError, "fatal", format, v...) }
func (n *natsLogger) Errorf(format string, v ...any) { n.logf(slog.LevelError, "error", format, v...) }
func (n *natsLogger) Warnf(format string, v ...any)  { n.logf(slog.LevelWarn, "warn", format, v...) }
func (n *natsLogger) Noticef(format string, v ...any) {
	n.logf(slog.LevelInfo, "notice", format, v...)
}
func (n *natsLogger) Debugf(format string, v ...any) { n.logf(slog.LevelDebug, "debug", format, v...) }
func (n *natsLogger) Tracef(format string, v ...any) { n.logf(slog.LevelDebug, "trace", format, v...) }
