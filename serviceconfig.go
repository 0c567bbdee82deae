// SPDX-License-Identifier: BSD-3-Clause

package daemonkit

import "github.com/u-bmc-forks/daemonkit/pkg/daemonconfig"

// Program is the server binary and the arguments used both to register
// it with a service manager and to invoke it directly.
type Program struct {
	Path string
	Args []string
}

// Level chooses system-wide vs per-user scope: /etc/systemd/system vs
// $XDG_CONFIG_HOME/systemd/user on Linux, /Library/LaunchDaemons vs
// ~/Library/LaunchAgents on macOS, and the service account on Windows.
type Level int

const (
	LevelSystem Level = iota
	LevelUser
)

// SystemdBlock carries systemd-specific unit directives that have no
// analogue on other platforms.
type SystemdBlock struct {
	After []string
}

// ACE is one additional Windows access-control entry granted on the
// installed service object.
type ACE struct {
	Trustee    string
	AccessMask uint32
}

// WindowsBlock carries Windows-specific service directives.
type WindowsBlock struct {
	ACEs []ACE
}

// ServiceConfig is the immutable view passed to a pkg/svcmgr backend.
// UserConfig's merged EnvironmentVariables are exported to the child
// process verbatim by the backend that installs or reloads it.
type ServiceConfig struct {
	Label       Label
	DisplayName string
	Description string
	Program     Program
	Level       Level
	Autostart   bool
	Systemd     SystemdBlock
	Windows     WindowsBlock
	Container   ContainerConfig
	UserConfig  *daemonconfig.CachedConfig[daemonconfig.UserConfig]
}

// ContainerConfig is consulted only by pkg/svcmgr/dockerbackend. It names
// the image run in place of a native service manager unit, on any
// platform the Docker daemon reaches.
type ContainerConfig struct {
	Image   string
	Ports   []string // "hostPort:containerPort"; dockerbackend creates no port bindings from it.
	Volumes []string // "hostPath:containerPath", passed through as-is.
}
