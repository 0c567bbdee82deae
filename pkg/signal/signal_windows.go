// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package signal

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/u-bmc-forks/daemonkit/pkg/cancel"
	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
	"github.com/u-bmc-forks/daemonkit/pkg/eventbus"
	"github.com/u-bmc-forks/daemonkit/pkg/svc"
)

// ctrlEvents is shared by every Listener on the process, matching
// SetConsoleCtrlHandler's single global handler chain.
var ctrlEvents = make(chan struct{}, 1)

// All and Termination are identical on Windows: CTRL_C, CTRL_BREAK,
// CTRL_CLOSE, CTRL_LOGOFF, and CTRL_SHUTDOWN all fold to SIGINT, which is
// always a termination signal, so there is no broader "All" set to offer.
func All(root *cancel.Token) (*Listener, eventbus.Store[Signal]) {
	return newWindowsListener(root)
}

func Termination(root *cancel.Token) (*Listener, eventbus.Store[Signal]) {
	return newWindowsListener(root)
}

func newWindowsListener(root *cancel.Token) (*Listener, eventbus.Store[Signal]) {
	sender, store := eventbus.NewBroadcast[Signal](32)
	return &Listener{root: root, sender: sender}, store
}

var _ svc.Service = (*Listener)(nil)

// Name implements svc.Service.
func (l *Listener) Name() string { return "signal" }

// Run installs a console control handler folding every ctrl event to
// SIGINT, then blocks until one arrives or ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	handle := windows.NewCallback(func(ctrlType uint32) uintptr {
		switch ctrlType {
		case windows.CTRL_C_EVENT, windows.CTRL_BREAK_EVENT,
			windows.CTRL_CLOSE_EVENT, windows.CTRL_LOGOFF_EVENT,
			windows.CTRL_SHUTDOWN_EVENT:
			select {
			case ctrlEvents <- struct{}{}:
			default:
			}
			return 1
		}
		return 0
	})

	proc := windows.NewLazySystemDLL("kernel32.dll").NewProc("SetConsoleCtrlHandler")
	if ret, _, err := proc.Call(handle, 1); ret == 0 {
		return fmt.Errorf("%w: SetConsoleCtrlHandler: %w", errkind.ErrSignalSetup, err)
	}
	defer proc.Call(handle, 0)
	defer l.sender.Close()

	select {
	case <-ctx.Done():
		return nil
	case <-ctrlEvents:
		l.sender.Publish(Signal{Kind: SIGINT})
		l.root.Cancel()
		return nil
	}
}
