// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package daemonkit

import (
	"context"
	"errors"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
	"github.com/u-bmc-forks/daemonkit/pkg/runtime"
)

// RunAsService hands the process to whichever native supervisor spawned
// it. On Unix this is identical to RunDirectly except notifyReady also
// emits sd_notify(READY=1) — a no-op when NOTIFY_SOCKET is unset, i.e.
// when the process was not actually started by systemd — and
// sd_notify(STOPPING=1) is emitted once RunService returns.
func RunAsService(ctx context.Context, newHandler NewHandlerFunc, input any) error {
	var constructErr error

	obslog.RedirectStdLog()

	sup := runtime.NewSupervisor(obslog.Global())

	err := sup.Run(ctx, func(rc *runtime.Context) runtime.HandlerFunc {
		return func(hctx context.Context) error {
			h, err := newHandler(rc, input)
			if err != nil {
				constructErr = err
				return err
			}
			sup.ShutdownTimeout = shutdownTimeoutOf(h)

			runErr := h.RunService(hctx, func() {
				if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
					obslog.Global().Warn("sd_notify ready failed", "err", err)
				}
			})

			if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
				obslog.Global().Warn("sd_notify stopping failed", "err", err)
			}
			return runErr
		}
	})
	if constructErr != nil {
		return errors.Join(constructErr, err)
	}
	return err
}
