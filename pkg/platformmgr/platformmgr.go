// SPDX-License-Identifier: BSD-3-Clause

// Package platformmgr selects the pkg/svcmgr.Manager backend appropriate
// to the host the process is running on. It exists as its own package,
// separate from both pkg/svcmgr (the Manager interface the backends
// satisfy) and the daemonkit root package (ServiceConfig's home),
// because the backends import both of those — a selector living in
// either would close an import cycle. NewDocker is not build-tag gated:
// the container backend works on every host that can reach a Docker
// daemon, independent of the native service manager.
package platformmgr

import (
	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr/dockerbackend"
)

// New selects and constructs the Manager backend native to the host
// platform: systemd on Linux, launchd on macOS, the SCM on Windows.
func New(cfg daemonkit.ServiceConfig) (svcmgr.Manager, error) {
	return newPlatform(cfg)
}

// NewDocker builds a Manager that runs cfg as a container instead of a
// native unit, regardless of host platform.
func NewDocker(cfg daemonkit.ServiceConfig) (svcmgr.Manager, error) {
	return dockerbackend.New(cfg)
}
