// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

// Package windowsbackend implements pkg/svcmgr.Manager over the Windows
// Service Control Manager, using golang.org/x/sys/windows/svc/mgr for
// install/start/stop/query and the description, golang.org/x/sys/windows
// security descriptors for additional ACEs, and
// golang.org/x/sys/windows/registry for the service environment, mirroring pkg/signal's existing
// use of golang.org/x/sys/windows for platform-native control.
package windowsbackend

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/internal/telemetry"
	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
	"github.com/u-bmc-forks/daemonkit/pkg/statefsm"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
)

// Backend implements svcmgr.Manager over the Windows SCM.
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

func (b *Backend) serviceName() string { return b.config.Label.String() }

func (b *Backend) commandLine() string {
	line := b.config.Program.Path
	for _, a := range b.config.Program.Args {
		line += " " + a
	}
	return line
}

// Install registers a new service with the SCM, sets its start type from
// Autostart, records the description, and applies any additional ACEs.
func (b *Backend) Install(ctx context.Context) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("%w: connect scm: %w", errkind.ErrBackendIO, err)
	}
	defer m.Disconnect()

	startType := uint32(mgr.StartManual)
	if b.config.Autostart {
		startType = mgr.StartAutomatic
	}

	s, err := m.CreateService(b.serviceName(), b.config.Program.Path, mgr.Config{
		DisplayName: b.config.DisplayName,
		Description: b.config.Description,
		StartType:   startType,
	}, b.config.Program.Args...)
	if err != nil {
		return fmt.Errorf("%w: create service: %w", errkind.ErrBackendIO, err)
	}
	defer s.Close()

	if len(b.config.Windows.ACEs) > 0 {
		if err := applyACEs(s, b.config.Windows.ACEs); err != nil {
			return err
		}
	}
	env, err := b.environmentValue()
	if err != nil {
		return err
	}
	if len(env) > 0 {
		if err := writeServiceEnvironment(b.serviceName(), env); err != nil {
			return err
		}
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerInstall)
	return nil
}

// Uninstall removes the service from the SCM.
func (b *Backend) Uninstall(ctx context.Context) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("%w: connect scm: %w", errkind.ErrBackendIO, err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(b.serviceName())
	if err != nil {
		return fmt.Errorf("%w: open service: %w", errkind.ErrBackendIO, err)
	}
	defer s.Close()

	if err := s.Delete(); err != nil {
		return fmt.Errorf("%w: delete service: %w", errkind.ErrBackendIO, err)
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerUninstall)
	return nil
}

func (b *Backend) withService(fn func(*mgr.Service) error) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("%w: connect scm: %w", errkind.ErrBackendIO, err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(b.serviceName())
	if err != nil {
		return fmt.Errorf("%w: open service: %w", errkind.ErrBackendIO, err)
	}
	defer s.Close()

	return fn(s)
}

func (b *Backend) Start(ctx context.Context) error {
	err := b.withService(func(s *mgr.Service) error {
		if err := s.Start(); err != nil {
			return fmt.Errorf("%w: start service: %w", errkind.ErrBackendIO, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerStart)
	return nil
}

func (b *Backend) Stop(ctx context.Context) error {
	err := b.withService(func(s *mgr.Service) error {
		_, err := s.Control(svc.Stop)
		if err != nil {
			return fmt.Errorf("%w: stop service: %w", errkind.ErrBackendIO, err)
		}
		return nil
	})
	if err != nil {
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
	return b.withService(func(s *mgr.Service) error {
		cfg, err := s.Config()
		if err != nil {
			return fmt.Errorf("%w: read config: %w", errkind.ErrBackendIO, err)
		}
		cfg.StartType = mgr.StartAutomatic
		if err := s.UpdateConfig(cfg); err != nil {
			return fmt.Errorf("%w: update config: %w", errkind.ErrBackendIO, err)
		}
		return nil
	})
}

func (b *Backend) DisableAutostart(ctx context.Context) error {
	return b.withService(func(s *mgr.Service) error {
		cfg, err := s.Config()
		if err != nil {
			return fmt.Errorf("%w: read config: %w", errkind.ErrBackendIO, err)
		}
		cfg.StartType = mgr.StartManual
		if err := s.UpdateConfig(cfg); err != nil {
			return fmt.Errorf("%w: update config: %w", errkind.ErrBackendIO, err)
		}
		return nil
	})
}

// Status opens the service with QUERY_STATUS and maps SERVICE_RUNNING to
// Started, SERVICE_STOPPED to Stopped, anything else (including a
// missing service) to Stopped/NotInstalled.
func (b *Backend) Status(ctx context.Context) (svcmgr.Status, error) {
	m, err := mgr.Connect()
	if err != nil {
		return svcmgr.Status{}, fmt.Errorf("%w: connect scm: %w", errkind.ErrBackendIO, err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(b.serviceName())
	if err != nil {
		return svcmgr.Status{State: svcmgr.StateNotInstalled}, nil
	}
	defer s.Close()

	status, err := s.Query()
	if err != nil {
		return svcmgr.Status{}, fmt.Errorf("%w: query status: %w", errkind.ErrBackendIO, err)
	}

	state := svcmgr.StateStopped
	if status.State == svc.Running {
		state = svcmgr.StateStarted
	}

	st := svcmgr.Status{State: state}
	if status.ProcessId > 0 {
		pid := int(status.ProcessId)
		st.PID = &pid
	}
	cfg, err := s.Config()
	if err == nil {
		auto := cfg.StartType == mgr.StartAutomatic
		st.Autostart = &auto
	}
	return st, nil
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

// ReloadConfig re-applies the binary path, description, and start type
// from the current ServiceConfig, skipping the update when nothing
// changed.
func (b *Backend) ReloadConfig(ctx context.Context) error {
	return b.withService(func(s *mgr.Service) error {
		cfg, err := s.Config()
		if err != nil {
			return fmt.Errorf("%w: read config: %w", errkind.ErrBackendIO, err)
		}
		wantStart := uint32(mgr.StartManual)
		if b.config.Autostart {
			wantStart = mgr.StartAutomatic
		}
		wantEnv, err := b.environmentValue()
		if err != nil {
			return err
		}
		haveEnv, _ := readServiceEnvironment(b.serviceName())
		if cfg.BinaryPathName == b.commandLine() && cfg.Description == b.config.Description &&
			cfg.StartType == wantStart && envEqual(haveEnv, wantEnv) {
			return nil
		}
		if err := writeServiceEnvironment(b.serviceName(), wantEnv); err != nil {
			return err
		}
		cfg.BinaryPathName = b.commandLine()
		cfg.Description = b.config.Description
		cfg.StartType = wantStart
		if err := s.UpdateConfig(cfg); err != nil {
			return fmt.Errorf("%w: update config: %w", errkind.ErrBackendIO, err)
		}
		return nil
	})
}

func (b *Backend) StatusCommand() string {
	return "sc query " + strings.ReplaceAll(b.serviceName(), " ", "_")
}
