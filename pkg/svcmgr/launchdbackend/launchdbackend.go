// SPDX-License-Identifier: BSD-3-Clause

// Package launchdbackend implements pkg/svcmgr.Manager over macOS's
// launchd, rendering a plist with encoding/xml and driving launchctl via
// os/exec the same way systemdbackend drives systemctl.
package launchdbackend

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/internal/telemetry"
	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
	"github.com/u-bmc-forks/daemonkit/pkg/file"
	"github.com/u-bmc-forks/daemonkit/pkg/statefsm"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
)

// Backend implements svcmgr.Manager over launchd.
type Backend struct {
	config daemonkit.ServiceConfig
	fsm    *statefsm.FSM
}

var _ svcmgr.Manager = (*Backend)(nil)

// New builds a Backend for cfg.
func New(cfg daemonkit.ServiceConfig) *Backend {
	return &Backend{
		config: cfg,
		fsm:    statefsm.New(cfg.Label.String(), telemetry.GetTracer("daemonkit/svcmgr")),
	}
}

func (b *Backend) plistPath() string {
	label := b.config.Label.String()
	if b.config.Level == daemonkit.LevelUser {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "LaunchAgents", label+".plist")
	}
	return filepath.Join("/Library/LaunchDaemons", label+".plist")
}

func (b *Backend) domainTarget() string {
	if b.config.Level == daemonkit.LevelUser {
		return fmt.Sprintf("gui/%d/%s", os.Getuid(), b.config.Label.String())
	}
	return "system/" + b.config.Label.String()
}

func (b *Backend) render() ([]byte, error) {
	args := append([]string{b.config.Program.Path}, b.config.Program.Args...)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n")
	buf.WriteString("<plist version=\"1.0\">\n<dict>\n")
	fmt.Fprintf(&buf, "  <key>Label</key>\n  <string>%s</string>\n", b.config.Label.String())
	buf.WriteString("  <key>ProgramArguments</key>\n  <array>\n")
	for _, a := range args {
		fmt.Fprintf(&buf, "    <string>%s</string>\n", xmlEscape(a))
	}
	buf.WriteString("  </array>\n")
	fmt.Fprintf(&buf, "  <key>RunAtLoad</key>\n  <%s/>\n", boolTag(b.config.Autostart))

	if b.config.UserConfig != nil {
		snap, err := b.config.UserConfig.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot user config: %w", errkind.ErrBackendIO, err)
		}
		if len(snap.EnvironmentVariables) > 0 {
			keys := make([]string, 0, len(snap.EnvironmentVariables))
			for k := range snap.EnvironmentVariables {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			buf.WriteString("  <key>EnvironmentVariables</key>\n  <dict>\n")
			for _, k := range keys {
				fmt.Fprintf(&buf, "    <key>%s</key>\n    <string>%s</string>\n", xmlEscape(k), xmlEscape(snap.EnvironmentVariables[k]))
			}
			buf.WriteString("  </dict>\n")
		}
	}

	buf.WriteString("</dict>\n</plist>\n")
	return buf.Bytes(), nil
}

func boolTag(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Install writes the plist and loads it into launchd.
func (b *Backend) Install(ctx context.Context) error {
	data, err := b.render()
	if err != nil {
		return err
	}
	path := b.plistPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create plist dir: %w", errkind.ErrBackendIO, err)
	}
	if err := file.AtomicUpdateFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write plist: %w", errkind.ErrBackendIO, err)
	}
	if err := b.launchctl(ctx, "load", path); err != nil {
		return err
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerInstall)
	return nil
}

// Uninstall unloads the service and removes the plist.
func (b *Backend) Uninstall(ctx context.Context) error {
	path := b.plistPath()
	if err := b.launchctl(ctx, "unload", path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove plist: %w", errkind.ErrBackendIO, err)
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerUninstall)
	return nil
}

func (b *Backend) launchctl(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "launchctl", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: launchctl %v: %w: %s", errkind.ErrBackendIO, args, err, out)
	}
	return nil
}

func (b *Backend) Start(ctx context.Context) error {
	if err := b.launchctl(ctx, "kickstart", "-k", b.domainTarget()); err != nil {
		return err
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerStart)
	return nil
}

func (b *Backend) Stop(ctx context.Context) error {
	if err := b.launchctl(ctx, "kill", "SIGTERM", b.domainTarget()); err != nil {
		return err
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerStop)
	return nil
}

func (b *Backend) Restart(ctx context.Context) error {
	if err := b.Stop(ctx); err != nil {
		return err
	}
	return b.Start(ctx)
}

func (b *Backend) EnableAutostart(ctx context.Context) error {
	return b.launchctl(ctx, "enable", b.domainTarget())
}

func (b *Backend) DisableAutostart(ctx context.Context) error {
	return b.launchctl(ctx, "disable", b.domainTarget())
}

// Status parses `launchctl print {domain}` output per the well-known
// "Could not find service" / "state = running" string matches.
func (b *Backend) Status(ctx context.Context) (svcmgr.Status, error) {
	cmd := exec.CommandContext(ctx, "launchctl", "print", b.domainTarget())
	out, err := cmd.CombinedOutput()
	text := string(out)

	if err != nil && strings.Contains(text, "Could not find service") {
		return svcmgr.Status{State: svcmgr.StateNotInstalled}, nil
	}
	if err != nil {
		return svcmgr.Status{}, fmt.Errorf("%w: launchctl print: %w: %s", errkind.ErrBackendIO, err, out)
	}

	return statusFromPrint(text), nil
}

// statusFromPrint maps a successful `launchctl print` dump to a Status.
func statusFromPrint(text string) svcmgr.Status {
	state := svcmgr.StateStopped
	if strings.Contains(text, "state = running") {
		state = svcmgr.StateStarted
	}

	st := svcmgr.Status{State: state}
	if idx := strings.Index(text, "pid = "); idx >= 0 {
		var pid int
		fmt.Sscanf(text[idx+len("pid = "):], "%d", &pid)
		if pid > 0 {
			st.PID = &pid
		}
	}
	return st
}

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

// ReloadConfig re-renders the plist and, only if it changed, rewrites it
// and reloads launchd.
func (b *Backend) ReloadConfig(ctx context.Context) error {
	data, err := b.render()
	if err != nil {
		return err
	}
	path := b.plistPath()
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := file.AtomicUpdateFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: rewrite plist: %w", errkind.ErrBackendIO, err)
	}
	if err := b.launchctl(ctx, "unload", path); err != nil {
		return err
	}
	return b.launchctl(ctx, "load", path)
}

func (b *Backend) StatusCommand() string {
	return "launchctl print " + b.domainTarget()
}
