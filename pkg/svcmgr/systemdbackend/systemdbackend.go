// SPDX-License-Identifier: BSD-3-Clause

// Package systemdbackend implements pkg/svcmgr.Manager over systemd:
// unit files rendered with text/template, install-time actions driven
// through systemctl, and live unit state queried over D-Bus with
// github.com/coreos/go-systemd/v22/dbus.
package systemdbackend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	systemddbus "github.com/coreos/go-systemd/v22/dbus"

	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/internal/telemetry"
	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
	"github.com/u-bmc-forks/daemonkit/pkg/file"
	"github.com/u-bmc-forks/daemonkit/pkg/statefsm"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
)

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description={{.Description}}
{{- range .After}}
After={{.}}
{{- end}}

[Service]
ExecStart={{.ExecStart}}
{{- range $k, $v := .Environment}}
Environment={{$k}}={{$v}}
{{- end}}

[Install]
WantedBy={{if .UserLevel}}default.target{{else}}multi-user.target{{end}}
`))

// Backend implements svcmgr.Manager over systemd.
type Backend struct {
	config daemonkit.ServiceConfig
	fsm    *statefsm.FSM
}

var _ svcmgr.Manager = (*Backend)(nil)

// New builds a Backend for cfg. Its lifecycle calls are traced through a
// statefsm.FSM built from internal/telemetry's global tracer, so
// install/start/stop spans show up once a caller has enabled tracing, and
// stay NoOp overhead otherwise.
func New(cfg daemonkit.ServiceConfig) *Backend {
	return &Backend{
		config: cfg,
		fsm:    statefsm.New(cfg.Label.String(), telemetry.GetTracer("daemonkit/svcmgr")),
	}
}

func (b *Backend) unitName() string {
	return b.config.Label.String() + ".service"
}

func (b *Backend) unitPath() (string, error) {
	if b.config.Level == daemonkit.LevelUser {
		dir := os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("%w: resolve home dir: %w", errkind.ErrBackendIO, err)
			}
			dir = filepath.Join(home, ".config")
		}
		return filepath.Join(dir, "systemd", "user", b.unitName()), nil
	}
	return filepath.Join("/etc/systemd/system", b.unitName()), nil
}

func (b *Backend) render() ([]byte, error) {
	env := map[string]string{}
	if b.config.UserConfig != nil {
		snap, err := b.config.UserConfig.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot user config: %w", errkind.ErrBackendIO, err)
		}
		env = snap.EnvironmentVariables
	}

	execStart := b.config.Program.Path
	for _, a := range b.config.Program.Args {
		execStart += " " + a
	}

	var buf bytes.Buffer
	err := unitTemplate.Execute(&buf, struct {
		Description string
		After       []string
		ExecStart   string
		Environment map[string]string
		UserLevel   bool
	}{
		Description: b.config.Description,
		After:       b.config.Systemd.After,
		ExecStart:   execStart,
		Environment: env,
		UserLevel:   b.config.Level == daemonkit.LevelUser,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: render unit: %w", errkind.ErrBackendIO, err)
	}
	return buf.Bytes(), nil
}

func (b *Backend) systemctl(ctx context.Context, args ...string) error {
	if b.config.Level == daemonkit.LevelUser {
		args = append([]string{"--user"}, args...)
	}
	cmd := exec.CommandContext(ctx, "systemctl", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: systemctl %v: %w: %s", errkind.ErrBackendIO, args, err, out)
	}
	return nil
}

// Install renders the unit file and reloads the systemd manager.
func (b *Backend) Install(ctx context.Context) error {
	path, err := b.unitPath()
	if err != nil {
		return err
	}
	data, err := b.render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create unit dir: %w", errkind.ErrBackendIO, err)
	}
	if err := file.AtomicUpdateFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write unit: %w", errkind.ErrBackendIO, err)
	}
	if err := b.systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerInstall)
	return nil
}

// Uninstall removes the unit file and reloads the manager.
func (b *Backend) Uninstall(ctx context.Context) error {
	path, err := b.unitPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove unit: %w", errkind.ErrBackendIO, err)
	}
	if err := b.systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerUninstall)
	return nil
}

func (b *Backend) Start(ctx context.Context) error {
	if err := b.systemctl(ctx, "start", b.unitName()); err != nil {
		return err
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerStart)
	return nil
}

func (b *Backend) Stop(ctx context.Context) error {
	if err := b.systemctl(ctx, "stop", b.unitName()); err != nil {
		return err
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerStop)
	return nil
}

func (b *Backend) Restart(ctx context.Context) error {
	return b.systemctl(ctx, "restart", b.unitName())
}
func (b *Backend) EnableAutostart(ctx context.Context) error {
	return b.systemctl(ctx, "enable", b.unitName())
}
func (b *Backend) DisableAutostart(ctx context.Context) error {
	return b.systemctl(ctx, "disable", b.unitName())
}

func (b *Backend) dbusConn(ctx context.Context) (*systemddbus.Conn, error) {
	if b.config.Level == daemonkit.LevelUser {
		return systemddbus.NewUserConnectionContext(ctx)
	}
	return systemddbus.NewSystemConnectionContext(ctx)
}

// Status maps (LoadState, ActiveState, SubState) to svcmgr.Status per
// systemd's own unit-state semantics.
func (b *Backend) Status(ctx context.Context) (svcmgr.Status, error) {
	conn, err := b.dbusConn(ctx)
	if err != nil {
		return svcmgr.Status{}, fmt.Errorf("%w: connect dbus: %w", errkind.ErrBackendIO, err)
	}
	defer conn.Close()

	props, err := conn.GetUnitPropertiesContext(ctx, b.unitName())
	if err != nil {
		return svcmgr.Status{State: svcmgr.StateNotInstalled}, nil
	}

	loadState, _ := props["LoadState"].(string)
	activeState, _ := props["ActiveState"].(string)
	subState, _ := props["SubState"].(string)

	if loadState == "not-found" {
		return svcmgr.Status{State: svcmgr.StateNotInstalled}, nil
	}

	state := svcmgr.StateStopped
	if loadState == "loaded" && activeState == "active" && subState == "running" {
		state = svcmgr.StateStarted
	}

	st := svcmgr.Status{State: state}
	if pidVal, ok := props["MainPID"].(uint32); ok && pidVal > 0 {
		pid := int(pidVal)
		st.PID = &pid
	}
	if unitFileState, ok := props["UnitFileState"].(string); ok {
		enabled := unitFileState == "enabled"
		st.Autostart = &enabled
	}
	return st, nil
}

// PID returns the unit's MainPID, when running.
func (b *Backend) PID(ctx context.Context) (int, bool, error) {
	st, err := b.Status(ctx)
	if err != nil {
		return 0, false, err
	}
	if st.PID == nil {
		return 0, false, nil
	}
	return *st.PID, true, nil
}

// ReloadConfig re-renders the unit and, only if its content changed,
// rewrites it and runs daemon-reload.
func (b *Backend) ReloadConfig(ctx context.Context) error {
	path, err := b.unitPath()
	if err != nil {
		return err
	}
	data, err := b.render()
	if err != nil {
		return err
	}
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := file.AtomicUpdateFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: rewrite unit: %w", errkind.ErrBackendIO, err)
	}
	return b.systemctl(ctx, "daemon-reload")
}

// StatusCommand returns a shell-invocable status query for scripting.
func (b *Backend) StatusCommand() string {
	if b.config.Level == daemonkit.LevelUser {
		return "systemctl --user status " + b.unitName()
	}
	return "systemctl status " + b.unitName()
}
