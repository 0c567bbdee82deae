// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package signal_test

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/cancel"
	"github.com/u-bmc-forks/daemonkit/pkg/signal"
)

func TestNonTerminationSignalIsPublishedOnly(t *testing.T) {
	root := cancel.NewRoot(context.Background())
	listener, store := signal.All(root)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sub := store.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	// Let Run install its handler before raising the signal.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))

	select {
	case ev := <-sub:
		require.Equal(t, signal.SIGHUP, ev.Value.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for SIGHUP event")
	}

	require.False(t, root.IsCancelled(), "SIGHUP must not begin shutdown")

	stop()
	require.NoError(t, <-done)
}

func TestSIGTSTPIsPublishedButDoesNotCancelRoot(t *testing.T) {
	root := cancel.NewRoot(context.Background())
	listener, store := signal.Termination(root)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sub := store.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTSTP))

	select {
	case ev := <-sub:
		require.Equal(t, signal.SIGTSTP, ev.Value.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for SIGTSTP event")
	}

	require.False(t, root.IsCancelled(), "SIGTSTP must not begin shutdown")
	select {
	case <-done:
		t.Fatal("listener must keep running after SIGTSTP")
	default:
	}

	stop()
	require.NoError(t, <-done)
}

func TestTerminationSignalCancelsRootAndReturns(t *testing.T) {
	root := cancel.NewRoot(context.Background())
	listener, store := signal.Termination(root)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	sub := store.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case ev := <-sub:
		require.Equal(t, signal.SIGTERM, ev.Value.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for SIGTERM event")
	}

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener should return after a termination signal")
	}
	require.True(t, root.IsCancelled())
}
