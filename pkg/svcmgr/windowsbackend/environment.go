// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package windowsbackend

import (
	"fmt"
	"sort"

	"golang.org/x/sys/windows/registry"

	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
)

// The SCM exports a service's per-service environment from the
// REG_MULTI_SZ "Environment" value under its registry key, so the merged
// user-config overlay lands there rather than in the command line.

const servicesKeyPrefix = `SYSTEM\CurrentControlSet\Services\`

// environmentValue renders the merged user-config overlay as the sorted
// "NAME=value" list the Environment registry value expects. A nil
// UserConfig yields nil, which writeServiceEnvironment treats as
// "delete the value".
func (b *Backend) environmentValue() ([]string, error) {
	if b.config.UserConfig == nil {
		return nil, nil
	}
	snap, err := b.config.UserConfig.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot user config: %w", errkind.ErrBackendIO, err)
	}
	if len(snap.EnvironmentVariables) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(snap.EnvironmentVariables))
	for k, v := range snap.EnvironmentVariables {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out, nil
}

func readServiceEnvironment(name string) ([]string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, servicesKeyPrefix+name, registry.QUERY_VALUE)
	if err != nil {
		return nil, fmt.Errorf("%w: open service key: %w", errkind.ErrBackendIO, err)
	}
	defer key.Close()

	env, _, err := key.GetStringsValue("Environment")
	if err == registry.ErrNotExist {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read environment value: %w", errkind.ErrBackendIO, err)
	}
	return env, nil
}

func writeServiceEnvironment(name string, env []string) error {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, servicesKeyPrefix+name, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("%w: open service key: %w", errkind.ErrBackendIO, err)
	}
	defer key.Close()

	if len(env) == 0 {
		if err := key.DeleteValue("Environment"); err != nil && err != registry.ErrNotExist {
			return fmt.Errorf("%w: delete environment value: %w", errkind.ErrBackendIO, err)
		}
		return nil
	}
	if err := key.SetStringsValue("Environment", env); err != nil {
		return fmt.Errorf("%w: write environment value: %w", errkind.ErrBackendIO, err)
	}
	return nil
}

func envEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
