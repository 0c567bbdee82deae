// SPDX-License-Identifier: BSD-3-Clause

package daemonconfig_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/daemonconfig"
)

func env(pairs ...string) daemonconfig.UserConfig {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return daemonconfig.UserConfig{EnvironmentVariables: m}
}

func TestUserConfigMergeOverrides(t *testing.T) {
	base := env("LOG_LEVEL", "info", "REGION", "eu")
	over := env("LOG_LEVEL", "debug")

	merged, err := base.Merge(over)
	require.NoError(t, err)
	require.Equal(t, "debug", merged.EnvironmentVariables["LOG_LEVEL"])
	require.Equal(t, "eu", merged.EnvironmentVariables["REGION"], "keys absent from the override survive")

	require.Equal(t, "info", base.EnvironmentVariables["LOG_LEVEL"], "merge must not mutate the receiver")
}

func TestCachedConfigSnapshotIgnoresSourceUntilLoad(t *testing.T) {
	live := env("A", "1")
	accessor := func(ctx context.Context) (daemonconfig.UserConfig, error) {
		return live, nil
	}

	cc := daemonconfig.NewCachedConfig(accessor, env("A", "0"))

	require.NoError(t, cc.Load(context.Background()))
	snap, err := cc.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "1", snap.EnvironmentVariables["A"])

	// The source moves on; Snapshot stays on the loaded value.
	live = env("A", "2")
	snap, err = cc.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "1", snap.EnvironmentVariables["A"])

	require.NoError(t, cc.Load(context.Background()))
	snap, err = cc.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "2", snap.EnvironmentVariables["A"])
}

func TestCachedConfigExplicitWins(t *testing.T) {
	accessor := func(ctx context.Context) (daemonconfig.UserConfig, error) {
		return env("A", "from-source", "B", "kept"), nil
	}

	cc := daemonconfig.NewCachedConfig(accessor, daemonconfig.UserConfig{})
	require.NoError(t, cc.Load(context.Background()))

	cc.SetExplicit(env("A", "forced"))

	snap, err := cc.Snapshot()
	require.NoError(t, err)
	require.Equal(t, "forced", snap.EnvironmentVariables["A"])
	require.Equal(t, "kept", snap.EnvironmentVariables["B"])
}
