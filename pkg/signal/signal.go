// SPDX-License-Identifier: BSD-3-Clause

// Package signal translates OS signals into typed Signal events on an
// eventbus.Store and routes termination signals into a cancel.Token, so
// one listener both informs subscribers and begins graceful shutdown.
package signal

import (
	"github.com/u-bmc-forks/daemonkit/pkg/cancel"
	"github.com/u-bmc-forks/daemonkit/pkg/eventbus"
)

// SignalKind is one of the closed set of signals this framework
// recognizes, folding every OS-specific variant onto a common name.
type SignalKind int

const (
	SIGTERM SignalKind = iota
	SIGINT
	SIGQUIT
	SIGHUP
	SIGTSTP
	SIGCHLD
	SIGCONT
	Other
)

// Signal is a single delivered signal event. Other carries the OS signal's
// name when Kind is Other.
type Signal struct {
	Kind  SignalKind
	Other string
}

// terminationKinds are the signals that cancel the root token when
// received. SIGTSTP is in Termination's listen set but only gets
// published; a stop request suspends, it does not shut down.
var terminationKinds = map[SignalKind]bool{
	SIGTERM: true,
	SIGINT:  true,
	SIGQUIT: true,
}

// Listener is a background service that publishes Signal events and, on a
// termination signal, cancels the root cancel.Token. Its Name/Run methods
// and constructors (All, Termination) are platform-specific.
type Listener struct {
	root   *cancel.Token
	sender *eventbus.Sender[Signal]
}
