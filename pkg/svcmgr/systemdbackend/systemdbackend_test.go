// SPDX-License-Identifier: BSD-3-Clause

package systemdbackend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/pkg/daemonconfig"
)

func testConfig() daemonkit.ServiceConfig {
	return daemonkit.ServiceConfig{
		Label:       daemonkit.Label{Qualifier: "com", Organization: "test", Application: "ds_test"},
		DisplayName: "ds test",
		Description: "echo daemon used in round-trip scenarios",
		Program:     daemonkit.Program{Path: "/usr/local/bin/echo-daemon", Args: []string{"run"}},
		Systemd:     daemonkit.SystemdBlock{After: []string{"network.target"}},
	}
}

func TestRenderUnit(t *testing.T) {
	b := New(testConfig())

	data, err := b.render()
	require.NoError(t, err)
	unit := string(data)

	require.Contains(t, unit, "Description=echo daemon used in round-trip scenarios")
	require.Contains(t, unit, "After=network.target")
	require.Contains(t, unit, "ExecStart=/usr/local/bin/echo-daemon run")
	require.Contains(t, unit, "WantedBy=multi-user.target")
}

func TestRenderUnitUserLevel(t *testing.T) {
	cfg := testConfig()
	cfg.Level = daemonkit.LevelUser
	b := New(cfg)

	data, err := b.render()
	require.NoError(t, err)
	require.Contains(t, string(data), "WantedBy=default.target")
}

func TestRenderUnitEnvironmentLines(t *testing.T) {
	cfg := testConfig()
	cfg.UserConfig = daemonconfig.NewCachedConfig[daemonconfig.UserConfig](
		func(ctx context.Context) (daemonconfig.UserConfig, error) {
			return daemonconfig.UserConfig{}, nil
		},
		daemonconfig.UserConfig{EnvironmentVariables: map[string]string{
			"LOG_LEVEL": "debug",
			"REGION":    "eu",
		}},
	)
	b := New(cfg)

	data, err := b.render()
	require.NoError(t, err)
	unit := string(data)

	require.Contains(t, unit, "Environment=LOG_LEVEL=debug")
	require.Contains(t, unit, "Environment=REGION=eu")
}

func TestUnitPathByLevel(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/home/u/.config")

	system := New(testConfig())
	path, err := system.unitPath()
	require.NoError(t, err)
	require.Equal(t, "/etc/systemd/system/com.test.ds_test.service", path)

	cfg := testConfig()
	cfg.Level = daemonkit.LevelUser
	user := New(cfg)
	path, err = user.unitPath()
	require.NoError(t, err)
	require.Equal(t, "/home/u/.config/systemd/user/com.test.ds_test.service", path)
}

func TestRenderIsDeterministic(t *testing.T) {
	b := New(testConfig())
	first, err := b.render()
	require.NoError(t, err)
	second, err := b.render()
	require.NoError(t, err)
	require.Equal(t, first, second, "an unchanged config must render byte-identical so ReloadConfig can skip the rewrite")
}
