// SPDX-License-Identifier: BSD-3-Clause

package daemonkit

import (
	"context"
	"time"

	"github.com/u-bmc-forks/daemonkit/pkg/runtime"
)

// DefaultShutdownTimeout is the graceful-shutdown budget a Handler gets
// unless it overrides ShutdownTimeout.
const DefaultShutdownTimeout = 5 * time.Second

// Handler is the contract an application implements to become a
// daemonkit daemon: RunDirectly and RunAsService both construct one
// through a NewHandlerFunc, call RunService, and on return tear down
// every background service spawned against the *runtime.Context handed
// to that constructor.
type Handler interface {
	// Label returns the service's identity, used by RunAsService to
	// decide the systemd-notify socket and to label log lines.
	Label() Label

	// RunService runs the handler to completion. ctx is cancelled when
	// the runtime Context's root token is cancelled (for example by a
	// spawned pkg/signal listener on a termination signal) or the parent
	// ctx is; a failing background service does not cancel it. notifyReady is called once the handler has
	// finished its own start-up and is ready to serve; RunAsService wires
	// it to sd_notify(READY=1) under systemd and to nothing elsewhere.
	RunService(ctx context.Context, notifyReady func()) error
}

// ShutdownTimeouter is implemented by handlers that want a shutdown
// timeout other than DefaultShutdownTimeout.
type ShutdownTimeouter interface {
	ShutdownTimeout() time.Duration
}

func shutdownTimeoutOf(h Handler) time.Duration {
	if t, ok := h.(ShutdownTimeouter); ok {
		return t.ShutdownTimeout()
	}
	return DefaultShutdownTimeout
}

// NewHandlerFunc constructs a Handler given the runtime.Context it should
// spawn its background services against, and an opaque input value
// (typically parsed CLI flags or a config struct) passed through
// unexamined by the framework.
type NewHandlerFunc func(rc *runtime.Context, input any) (Handler, error)
