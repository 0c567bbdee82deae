// SPDX-License-Identifier: BSD-3-Clause

// Package svc defines the uniform lifecycle contract every background
// service implements: a name, a Run that blocks until its context is
// cancelled, and an optional shutdown budget. Services reach the event
// bus and IPC bus through whatever was injected into their constructor,
// not through a fixed Run parameter.
package svc

import (
	"context"
	"time"
)

// DefaultShutdownTimeout is used by services that do not override
// ShutdownTimeout.
const DefaultShutdownTimeout = 5 * time.Second

// Service is a long-running background task managed by a
// runtime.ServiceContext. A service that returns nil is a oneshot: it is
// considered complete and will not be restarted. A service that returns a
// non-nil error is logged and, depending on the supervisor's restart
// strategy, may be restarted; in neither case does it abort sibling
// services.
type Service interface {
	// Name returns the service's identifier. It should be unique within
	// the ServiceContext it is spawned into.
	Name() string

	// Run executes the service until ctx is cancelled or the service
	// completes on its own. Every loop that awaits external input must
	// race it against ctx and return promptly on cancellation.
	Run(ctx context.Context) error
}

// ShutdownTimeouter is implemented by services that want a
// shutdown timeout other than DefaultShutdownTimeout. The supervisor
// checks for this interface and falls back to the default when a service
// does not implement it.
type ShutdownTimeouter interface {
	ShutdownTimeout() time.Duration
}

// ShutdownTimeoutOf returns s's declared shutdown timeout, or
// DefaultShutdownTimeout if s does not implement ShutdownTimeouter.
func ShutdownTimeoutOf(s Service) time.Duration {
	if t, ok := s.(ShutdownTimeouter); ok {
		return t.ShutdownTimeout()
	}
	return DefaultShutdownTimeout
}
