// SPDX-License-Identifier: BSD-3-Clause

// Package obslog builds the process-wide structured logger every
// daemonkit package logs through. It fans a single slog.Logger out to a
// human-readable zerolog console writer and an OpenTelemetry log bridge,
// so one logging call lands on the console and, once a real exporter is
// configured, in the collector as well.
package obslog

import (
	"log/slog"
	"sync"

	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogzerolog "github.com/samber/slog-zerolog/v2"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
)

var (
	mu      sync.Mutex
	globalL *slog.Logger
)

// New builds a *slog.Logger identified as name that fans out to a
// zerolog console writer (timestamped, human-readable) and the global
// OpenTelemetry logger provider. level sets the minimum level passed to
// the console handler; the otel handler has no level filter of its own.
func New(name string, level slog.Level) *slog.Logger {
	zeroLogger := zerolog.
		New(zerolog.NewConsoleWriter()).
		With().
		Timestamp().
		Logger()

	provider := global.GetLoggerProvider()
	otelHandler := otelslog.NewHandler(name, otelslog.WithLoggerProvider(provider))

	return slog.New(slogmulti.Fanout(
		slogzerolog.Option{Level: level, Logger: &zeroLogger}.NewZerologHandler(),
		otelHandler,
	))
}

// SetGlobal installs l as the logger returned by Global. Intended to be
// called once, near process start, by whichever entry point
// (RunDirectly/RunAsService) constructs the supervisor.
func SetGlobal(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	globalL = l
}

// Global returns the process-wide logger set by SetGlobal, or a
// default-configured logger named "daemonkit" if none was set yet.
func Global() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalL == nil {
		globalL = New("daemonkit", slog.LevelInfo)
	}
	return globalL
}
