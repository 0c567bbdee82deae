// SPDX-License-Identifier: BSD-3-Clause

package statefsm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/statefsm"
)

func TestLifecycleFollowsInstallStartStopUninstall(t *testing.T) {
	f := statefsm.New("com.test.ds_test", nil)
	require.Equal(t, statefsm.NotInstalled, f.State())

	require.NoError(t, f.Fire(context.Background(), statefsm.TriggerInstall))
	require.Equal(t, statefsm.Stopped, f.State())

	require.NoError(t, f.Fire(context.Background(), statefsm.TriggerStart))
	require.Equal(t, statefsm.Started, f.State())

	require.NoError(t, f.Fire(context.Background(), statefsm.TriggerStop))
	require.Equal(t, statefsm.Stopped, f.State())

	require.NoError(t, f.Fire(context.Background(), statefsm.TriggerUninstall))
	require.Equal(t, statefsm.NotInstalled, f.State())
}

func TestStartFromNotInstalledIsRejected(t *testing.T) {
	f := statefsm.New("com.test.ds_test", nil)
	require.False(t, f.CanFire(statefsm.TriggerStart))

	err := f.Fire(context.Background(), statefsm.TriggerStart)
	require.ErrorIs(t, err, statefsm.ErrInvalidTransition)
	require.Equal(t, statefsm.NotInstalled, f.State())
}

func TestUninstallFromStartedIsRejected(t *testing.T) {
	f := statefsm.New("com.test.ds_test", nil)
	require.NoError(t, f.Fire(context.Background(), statefsm.TriggerInstall))
	require.NoError(t, f.Fire(context.Background(), statefsm.TriggerStart))

	err := f.Fire(context.Background(), statefsm.TriggerUninstall)
	require.ErrorIs(t, err, statefsm.ErrInvalidTransition)
	require.Equal(t, statefsm.Started, f.State())
}
