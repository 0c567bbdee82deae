// SPDX-License-Identifier: BSD-3-Clause

package svcmgr_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
)

func TestStateString(t *testing.T) {
	require.Equal(t, "NotInstalled", svcmgr.StateNotInstalled.String())
	require.Equal(t, "Stopped", svcmgr.StateStopped.String())
	require.Equal(t, "Started", svcmgr.StateStarted.String())
	require.Equal(t, "NotInstalled", svcmgr.State(99).String())
}

type fakeManager struct {
	statuses []svcmgr.Status
	calls    int
}

func (f *fakeManager) Install(ctx context.Context) error          { return nil }
func (f *fakeManager) Uninstall(ctx context.Context) error        { return nil }
func (f *fakeManager) Start(ctx context.Context) error            { return nil }
func (f *fakeManager) Stop(ctx context.Context) error             { return nil }
func (f *fakeManager) Restart(ctx context.Context) error          { return nil }
func (f *fakeManager) EnableAutostart(ctx context.Context) error  { return nil }
func (f *fakeManager) DisableAutostart(ctx context.Context) error { return nil }
func (f *fakeManager) PID(ctx context.Context) (int, bool, error) { return 0, false, nil }
func (f *fakeManager) ReloadConfig(ctx context.Context) error     { return nil }
func (f *fakeManager) StatusCommand() string                      { return "status" }

func (f *fakeManager) Status(ctx context.Context) (svcmgr.Status, error) {
	st := f.statuses[f.calls%len(f.statuses)]
	f.calls++
	return st, nil
}

func TestPollStatusEmitsUntilCancelled(t *testing.T) {
	mgr := &fakeManager{statuses: []svcmgr.Status{
		{State: svcmgr.StateStopped},
		{State: svcmgr.StateStarted},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	ch := svcmgr.PollStatus(ctx, mgr, time.Millisecond)

	first := <-ch
	require.Equal(t, svcmgr.StateStopped, first.State)
	second := <-ch
	require.Equal(t, svcmgr.StateStarted, second.State)

	cancel()
	for range ch {
	}
}
