// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package daemonkit

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows/svc"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
	"github.com/u-bmc-forks/daemonkit/pkg/cancel"
	"github.com/u-bmc-forks/daemonkit/pkg/runtime"
)

// RunAsService registers the process with the Windows Service Control
// Manager and blocks until the SCM stops it. The SCM's control-handler
// callback is wired to cancel the same root cancel.Token every spawned
// background service observes, so a Stop/Shutdown request from the SCM
// drives the identical graceful-shutdown path a termination signal would
// on Unix.
func RunAsService(ctx context.Context, newHandler NewHandlerFunc, input any) error {
	h := &serviceHandler{ctx: ctx, newHandler: newHandler, input: input}
	if err := svc.Run(h.name(), h); err != nil {
		return fmt.Errorf("run windows service: %w", err)
	}
	return h.runErr
}

type serviceHandler struct {
	ctx        context.Context
	newHandler NewHandlerFunc
	input      any
	runErr     error
}

// name asks newHandler to construct a throwaway Handler just to read its
// Label — svc.Run needs the registered service name before Execute (and
// therefore the real runtime.Context) exists. Handler constructors must
// tolerate a nil *runtime.Context for this call; they should defer any
// rc.Spawn calls to RunService, which always runs against the real one.
func (h *serviceHandler) name() (name string) {
	name = "daemonkit"
	defer func() {
		if recover() != nil {
			name = "daemonkit"
		}
	}()
	hnd, err := h.newHandler(nil, h.input)
	if err != nil || hnd == nil {
		return name
	}
	return hnd.Label().String()
}

// Execute is called by the SCM once the service starts. It runs the
// handler through the same runtime.Supervisor direct-run path used
// everywhere else, capturing the root cancel.Token via Supervisor.OnStart
// so SERVICE_CONTROL_STOP/SHUTDOWN can cancel it.
func (h *serviceHandler) Execute(args []string, r <-chan svc.ChangeRequest, s chan<- svc.Status) (bool, uint32) {
	const accepted = svc.AcceptStop | svc.AcceptShutdown

	s <- svc.Status{State: svc.StartPending}

	var root *cancel.Token
	tokenReady := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		obslog.RedirectStdLog()
		sup := runtime.NewSupervisor(obslog.Global())
		sup.OnStart = func(rc *runtime.Context) {
			root = rc.CancellationToken()
			close(tokenReady)
		}
		h.runErr = func() error {
			var constructErr error
			err := sup.Run(h.ctx, func(rc *runtime.Context) runtime.HandlerFunc {
				return func(hctx context.Context) error {
					hnd, err := h.newHandler(rc, h.input)
					if err != nil {
						constructErr = err
						return err
					}
					sup.ShutdownTimeout = shutdownTimeoutOf(hnd)
					return hnd.RunService(hctx, func() {})
				}
			})
			if constructErr != nil {
				return constructErr
			}
			return err
		}()
	}()

	select {
	case <-tokenReady:
	case <-h.ctx.Done():
	}
	s <- svc.Status{State: svc.Running, Accepts: accepted}

	for change := range r {
		switch change.Cmd {
		case svc.Interrogate:
			s <- change.CurrentStatus
		case svc.Stop, svc.Shutdown:
			s <- svc.Status{State: svc.StopPending}
			select {
			case <-tokenReady:
				root.Cancel()
			default:
			}
			<-done
			return false, 0
		}
	}
	return false, 0
}
