// SPDX-License-Identifier: BSD-3-Clause

// Package statefsm validates the service lifecycle a Manager implementation
// observes: NotInstalled -> Stopped -> Started -> Stopped -> NotInstalled.
// The state set is closed, so the machine is built once at construction
// rather than exposing a general-purpose FSM builder.
package statefsm

import (
	"context"
	"fmt"
	"sync"

	"github.com/qmuntal/stateless"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// State is one of the three lifecycle states a Manager reports.
type State string

const (
	NotInstalled State = "not_installed"
	Stopped      State = "stopped"
	Started      State = "started"
)

// Trigger is one of the backend operations that moves the lifecycle along.
type Trigger string

const (
	TriggerInstall   Trigger = "install"
	TriggerUninstall Trigger = "uninstall"
	TriggerStart     Trigger = "start"
	TriggerStop      Trigger = "stop"
)

// FSM tracks one service's observed lifecycle and rejects a transition a
// Manager backend should never report (e.g. Start from NotInstalled).
type FSM struct {
	mu      sync.Mutex
	machine *stateless.StateMachine
	tracer  trace.Tracer
	name    string
}

// New builds an FSM starting in NotInstalled for the named service. If
// tracer is non-nil every Fire is wrapped in a span. svcmgr's backends
// build FSMs from internal/telemetry.GetTracer, so spans show up once a
// caller has configured tracing and stay zero-cost otherwise.
func New(name string, tracer trace.Tracer) *FSM {
	machine := stateless.NewStateMachine(string(NotInstalled))

	machine.Configure(string(NotInstalled)).
		Permit(string(TriggerInstall), string(Stopped))

	machine.Configure(string(Stopped)).
		Permit(string(TriggerUninstall), string(NotInstalled)).
		Permit(string(TriggerStart), string(Started))

	machine.Configure(string(Started)).
		Permit(string(TriggerStop), string(Stopped))

	return &FSM{machine: machine, tracer: tracer, name: name}
}

// Fire validates and applies trigger against the current state, returning
// ErrInvalidTransition if the backend reported an operation that cannot
// happen from the current state.
func (f *FSM) Fire(ctx context.Context, trigger Trigger) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tracer != nil {
		var span trace.Span
		ctx, span = f.tracer.Start(ctx, "statefsm.Fire",
			trace.WithAttributes(
				attribute.String("statefsm.name", f.name),
				attribute.String("statefsm.trigger", string(trigger)),
			))
		defer span.End()
	}

	if ok, _ := f.machine.CanFire(string(trigger)); !ok {
		current, _ := f.machine.State(ctx)
		return fmt.Errorf("%w: %s from %v", ErrInvalidTransition, trigger, current)
	}
	return f.machine.FireCtx(ctx, string(trigger))
}

// State returns the current lifecycle state.
func (f *FSM) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, _ := f.machine.State(context.Background())
	return State(current.(string))
}

// CanFire reports whether trigger is valid from the current state without
// applying it.
func (f *FSM) CanFire(trigger Trigger) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	ok, _ := f.machine.CanFire(string(trigger))
	return ok
}
