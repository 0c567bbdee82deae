// SPDX-License-Identifier: BSD-3-Clause

package runtime

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// HandlerFunc is the foreground entry point of a daemon: it runs until ctx
// is cancelled (through the parent context given to Run, or by whatever
// cancels the Context's root token, such as a spawned pkg/signal listener;
// a failing background service does not cancel it) and returns once it
// has finished its own cleanup.
// It is distinct from svc.Service: a handler is constructed with access to
// the Context so it can Spawn its own background services, rather than
// being spawned itself.
type HandlerFunc func(ctx context.Context) error

// Supervisor drives the direct-run lifecycle shared by every platform
// entry point: build a Context, start its supervision tree, hand the
// Context to the caller-supplied handler builder, run the resulting
// handler to completion, then stop the tree.
type Supervisor struct {
	Logger          *slog.Logger
	ShutdownTimeout time.Duration

	// OnStart, if set, runs once the supervision tree has started and
	// before build is called, receiving the Context so callers that need
	// the root cancel.Token before the handler exists — the Windows SCM
	// entry point wires its control-handler callback this way — can get
	// at it without Run exposing the Context any earlier than this.
	OnStart func(*Context)

	// OnServiceError, if set, is called for every spawned service's
	// terminal error as it is recorded, in addition to the error being
	// joined into Run's return value. It gives a caller an integration
	// point for error-reporting policy (alerting, crash dumps) without
	// having to wait for the whole tree to stop.
	OnServiceError func(name string, err error)
}

// NewSupervisor creates a Supervisor with the given logger. ShutdownTimeout
// defaults to 30s, the overall budget for Stop to drain every spawned
// service after the handler returns.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	return &Supervisor{
		Logger:          logger,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Run builds a Context, starts its supervision tree, builds the handler
// via build (which may Spawn background services against the Context),
// runs it to completion, and stops the tree. The returned error joins any
// handler error with every background-service error recorded during the
// run.
func (s *Supervisor) Run(ctx context.Context, build func(*Context) HandlerFunc) error {
	sc := NewContext(ctx, s.Logger)
	if s.OnServiceError != nil {
		sc.onServiceError = s.OnServiceError
	}
	if err := sc.Start(); err != nil {
		return err
	}
	if s.OnStart != nil {
		s.OnStart(sc)
	}

	handler := build(sc)

	handlerErr := handler(sc.CancellationToken().Context())

	stopCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	stopErr := sc.Stop(stopCtx)

	return errors.Join(handlerErr, stopErr)
}
