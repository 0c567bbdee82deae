// SPDX-License-Identifier: BSD-3-Clause

package daemonkit

import (
	"context"
	"errors"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
	"github.com/u-bmc-forks/daemonkit/pkg/runtime"
)

// RunDirectly runs newHandler's Handler without involving any native
// service manager: development mode. It builds a runtime.Supervisor,
// constructs the Handler against a fresh runtime.Context, runs
// RunService to completion, then stops every service that Handler (or
// anything it spawned) registered, joining each within its own shutdown
// timeout. The returned error joins the handler's own error with any
// aggregated background-service failure.
func RunDirectly(ctx context.Context, newHandler NewHandlerFunc, input any) error {
	return runSupervised(ctx, newHandler, input, nil)
}

// runSupervised is the shared body of RunDirectly and the Unix path of
// RunAsService; onStart, when non-nil, is wired to runtime.Supervisor's
// OnStart hook so a caller (the Windows SCM entry point) can capture the
// root cancel.Token before the handler exists.
func runSupervised(ctx context.Context, newHandler NewHandlerFunc, input any, onStart func(*runtime.Context)) error {
	var constructErr error

	obslog.RedirectStdLog()

	sup := runtime.NewSupervisor(obslog.Global())
	sup.OnStart = onStart

	err := sup.Run(ctx, func(rc *runtime.Context) runtime.HandlerFunc {
		return func(hctx context.Context) error {
			h, err := newHandler(rc, input)
			if err != nil {
				constructErr = err
				return err
			}
			sup.ShutdownTimeout = shutdownTimeoutOf(h)
			return h.RunService(hctx, func() {})
		}
	})
	if constructErr != nil {
		return errors.Join(constructErr, err)
	}
	return err
}
