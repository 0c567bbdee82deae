// SPDX-License-Identifier: BSD-3-Clause

package obslog

import (
	"log"
	"log/slog"
)

// NewStdLoggerAt returns a *log.Logger forwarding to l at the given
// level, for dependencies that only accept the standard library's logger
// (http.Server.ErrorLog and friends).
func NewStdLoggerAt(l *slog.Logger, level slog.Level) *log.Logger {
	return slog.NewLogLogger(l.Handler(), level)
}

// RedirectStdLog reroutes the standard library log package's
// process-wide output through Global at Info level, stamped
// subsystem=stdlog, so a dependency (or handler code) still calling
// log.Print lands in the same sink as everything else. Each process
// entry point calls this once before building its supervisor.
func RedirectStdLog() {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(NewStdLoggerAt(Global().With("subsystem", "stdlog"), slog.LevelInfo).Writer())
}
