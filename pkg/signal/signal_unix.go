// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/u-bmc-forks/daemonkit/pkg/cancel"
	"github.com/u-bmc-forks/daemonkit/pkg/eventbus"
	"github.com/u-bmc-forks/daemonkit/pkg/svc"
)

var _ svc.Service = (*unixListener)(nil)

var allLookup = map[os.Signal]SignalKind{
	syscall.SIGTERM: SIGTERM,
	os.Interrupt:    SIGINT,
	syscall.SIGQUIT: SIGQUIT,
	syscall.SIGHUP:  SIGHUP,
	syscall.SIGTSTP: SIGTSTP,
	syscall.SIGCHLD: SIGCHLD,
	syscall.SIGCONT: SIGCONT,
}

var terminationLookup = map[os.Signal]SignalKind{
	syscall.SIGTERM: SIGTERM,
	os.Interrupt:    SIGINT,
	syscall.SIGQUIT: SIGQUIT,
	syscall.SIGTSTP: SIGTSTP,
}

// unixListener adds the OS-signal registration this platform needs on top
// of the common Listener fields.
type unixListener struct {
	Listener
	kinds  []os.Signal
	lookup map[os.Signal]SignalKind
}

// All registers every signal in the closed set: SIGTERM, SIGINT, SIGQUIT,
// SIGHUP, SIGTSTP, SIGCHLD, SIGCONT.
func All(root *cancel.Token) (*unixListener, eventbus.Store[Signal]) {
	kinds := make([]os.Signal, 0, len(allLookup))
	for s := range allLookup {
		kinds = append(kinds, s)
	}
	return newUnixListener(root, kinds, allLookup)
}

// Termination registers the termination set: SIGTERM, SIGINT and SIGQUIT,
// which trigger graceful shutdown, and SIGTSTP, which is only published.
func Termination(root *cancel.Token) (*unixListener, eventbus.Store[Signal]) {
	kinds := make([]os.Signal, 0, len(terminationLookup))
	for s := range terminationLookup {
		kinds = append(kinds, s)
	}
	return newUnixListener(root, kinds, terminationLookup)
}

func newUnixListener(root *cancel.Token, kinds []os.Signal, lookup map[os.Signal]SignalKind) (*unixListener, eventbus.Store[Signal]) {
	sender, store := eventbus.NewBroadcast[Signal](32)
	return &unixListener{
		Listener: Listener{root: root, sender: sender},
		kinds:    kinds,
		lookup:   lookup,
	}, store
}

// Name implements svc.Service.
func (l *unixListener) Name() string { return "signal" }

// Run installs the OS signal handler and blocks until one of the
// registered signals arrives or ctx is cancelled. On a termination
// signal it publishes the event then cancels the root token before
// returning. A broadcast send that finds no subscribers is not an error.
func (l *unixListener) Run(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, l.kinds...)
	defer signal.Stop(ch)
	defer l.sender.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-ch:
			kind, ok := l.lookup[sig]
			ev := Signal{Kind: kind}
			if !ok {
				ev = Signal{Kind: Other, Other: sig.String()}
			}
			l.sender.Publish(ev)
			if terminationKinds[ev.Kind] {
				l.root.Cancel()
				return nil
			}
		}
	}
}
