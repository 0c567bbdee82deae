// SPDX-License-Identifier: BSD-3-Clause

// Package svcmgr installs, starts, stops, and queries long-lived daemons
// through whichever native service manager the host provides — systemd,
// launchd, the Windows SCM, or a Docker container runtime — behind a
// single Manager interface. pkg/platformmgr selects the backend matching
// the build target.
package svcmgr

import (
	"context"
	"time"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
	"github.com/u-bmc-forks/daemonkit/pkg/statefsm"
)

// State is a service's coarse lifecycle position.
type State int

const (
	StateNotInstalled State = iota
	StateStopped
	StateStarted
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "Started"
	case StateStopped:
		return "Stopped"
	default:
		return "NotInstalled"
	}
}

// Status is a point-in-time snapshot of a service's state as reported by
// its native backend. Fields a backend does not supply stay nil; a
// NotInstalled state implies all pointer fields are nil, and a Started
// state implies PID is set on backends that expose one.
type Status struct {
	State        State
	Autostart    *bool
	PID          *int
	LastExitCode *int
	ID           *string
}

// Manager is the facade every platform backend implements.
type Manager interface {
	Install(ctx context.Context) error
	Uninstall(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	EnableAutostart(ctx context.Context) error
	DisableAutostart(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
	PID(ctx context.Context) (int, bool, error)
	ReloadConfig(ctx context.Context) error
	StatusCommand() string
}

// TraceLifecycle fires trigger against fsm, so a backend's own
// Install/Uninstall/Start/Stop calls get lifecycle validation and
// span-wrapped tracing. A rejected transition is logged,
// not returned: fsm is a fresh, in-process state tracker and cannot know
// about state a previous process run left behind, so it flags drift
// instead of blocking the real operation the backend just carried out.
func TraceLifecycle(ctx context.Context, fsm *statefsm.FSM, trigger statefsm.Trigger) {
	if fsm == nil {
		return
	}
	if err := fsm.Fire(ctx, trigger); err != nil {
		obslog.Global().WarnContext(ctx, "svcmgr: unexpected lifecycle transition", "trigger", trigger, "error", err)
	}
}

// PollStatus polls mgr.Status on interval until ctx is cancelled,
// sending each observed Status on the returned channel. It exists for
// callers — CLIs, health endpoints — that want to watch a service settle
// into Started/Stopped without building their own polling loop.
func PollStatus(ctx context.Context, mgr Manager, interval time.Duration) <-chan Status {
	out := make(chan Status)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			st, err := mgr.Status(ctx)
			if err == nil {
				select {
				case out <- st:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
