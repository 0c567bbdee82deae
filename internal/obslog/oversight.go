// SPDX-License-Identifier: BSD-3-Clause

package obslog

import (
	"fmt"
	"log/slog"
	"strings"

	"cirello.io/oversight/v2"
)

// NewOversightLogger adapts l into an oversight.Logger so pkg/runtime's
// supervision tree logs through the same fan-out pipeline as the rest of
// a daemonkit process, instead of oversight's default stderr writer.
//
// oversight has no concept of log level: every event from a routine
// restart count to a child crash comes through the same func(...any). A
// crash, failure or restart is worth a Warn — it's exactly the signal an
// operator watches a supervision tree for — so lines mentioning
// "restart", "fail" or "crash" are promoted; everything else (tree
// startup, steady-state bookkeeping) stays at Debug.
func NewOversightLogger(l *slog.Logger) oversight.Logger {
	return func(args ...any) {
		msg := fmt.Sprint(args...)
		if isSupervisionWarning(msg) {
			l.Warn("oversight", "msg", msg)
			return
		}
		l.Debug("oversight", "msg", msg)
	}
}

func isSupervisionWarning(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "restart") || strings.Contains(lower, "fail") || strings.Contains(lower, "crash")
}
