// SPDX-License-Identifier: BSD-3-Clause

// Package dockerbackend implements pkg/svcmgr.Manager by running the
// service as a container instead of a native OS unit, driving the Docker
// daemon through github.com/docker/docker/client. It is the one backend
// available on every platform the daemon reaches.
package dockerbackend

import (
	"context"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/internal/telemetry"
	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
	"github.com/u-bmc-forks/daemonkit/pkg/statefsm"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
)

// Backend implements svcmgr.Manager by mapping every facade operation
// onto the Docker Engine API for a single named container, identified by
// the service's Label. It works identically on every host platform the
// Docker daemon itself reaches.
type Backend struct {
	config daemonkit.ServiceConfig
	cli    *client.Client
	fsm    *statefsm.FSM
}

var _ svcmgr.Manager = (*Backend)(nil)

// New builds a Backend for cfg, dialing the Docker daemon from the
// ambient environment (DOCKER_HOST, TLS certs, etc.) the same way the
// standard Docker CLI does.
func New(cfg daemonkit.ServiceConfig) (*Backend, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: dial docker daemon: %w", errkind.ErrBackendIO, err)
	}
	return &Backend{
		config: cfg,
		cli:    cli,
		fsm:    statefsm.New(cfg.Label.String(), telemetry.GetTracer("daemonkit/svcmgr")),
	}, nil
}

func (b *Backend) containerName() string {
	return b.config.Label.String()
}

func (b *Backend) find(ctx context.Context) (*container.InspectResponse, error) {
	info, err := b.cli.ContainerInspect(ctx, b.containerName())
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: inspect container: %w", errkind.ErrBackendIO, err)
	}
	return &info, nil
}

// Install pulls the configured image if not already present and creates
// (but does not start) the container.
func (b *Backend) Install(ctx context.Context) error {
	existing, err := b.find(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	rc, err := b.cli.ImagePull(ctx, b.config.Container.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("%w: pull image %s: %w", errkind.ErrBackendIO, b.config.Container.Image, err)
	}
	_, _ = io.Copy(io.Discard, rc)
	rc.Close()

	env := []string{}
	if b.config.UserConfig != nil {
		snap, err := b.config.UserConfig.Snapshot()
		if err != nil {
			return fmt.Errorf("%w: snapshot user config: %w", errkind.ErrBackendIO, err)
		}
		for k, v := range snap.EnvironmentVariables {
			env = append(env, k+"="+v)
		}
	}

	cmd := append([]string{b.config.Program.Path}, b.config.Program.Args...)

	_, err = b.cli.ContainerCreate(ctx, &container.Config{
		Image: b.config.Container.Image,
		Cmd:   cmd,
		Env:   env,
	}, &container.HostConfig{
		Binds:         b.config.Container.Volumes,
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyDisabled},
	}, nil, nil, b.containerName())
	if err != nil {
		return fmt.Errorf("%w: create container: %w", errkind.ErrBackendIO, err)
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerInstall)
	return nil
}

// Uninstall removes the container, stopping it first if running.
func (b *Backend) Uninstall(ctx context.Context) error {
	existing, err := b.find(ctx)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if err := b.cli.ContainerRemove(ctx, b.containerName(), container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("%w: remove container: %w", errkind.ErrBackendIO, err)
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerUninstall)
	return nil
}

// Start starts the container.
func (b *Backend) Start(ctx context.Context) error {
	if err := b.cli.ContainerStart(ctx, b.containerName(), container.StartOptions{}); err != nil {
		return fmt.Errorf("%w: start container: %w", errkind.ErrBackendIO, err)
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerStart)
	return nil
}

// Stop stops the container.
func (b *Backend) Stop(ctx context.Context) error {
	if err := b.cli.ContainerStop(ctx, b.containerName(), container.StopOptions{}); err != nil {
		return fmt.Errorf("%w: stop container: %w", errkind.ErrBackendIO, err)
	}
	svcmgr.TraceLifecycle(ctx, b.fsm, statefsm.TriggerStop)
	return nil
}

// Restart restarts the container.
func (b *Backend) Restart(ctx context.Context) error {
	if err := b.cli.ContainerRestart(ctx, b.containerName(), container.StopOptions{}); err != nil {
		return fmt.Errorf("%w: restart container: %w", errkind.ErrBackendIO, err)
	}
	return nil
}

// EnableAutostart sets the container's restart policy to "always".
func (b *Backend) EnableAutostart(ctx context.Context) error {
	if _, err := b.cli.ContainerUpdate(ctx, b.containerName(), container.UpdateConfig{
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyAlways},
	}); err != nil {
		return fmt.Errorf("%w: enable autostart: %w", errkind.ErrBackendIO, err)
	}
	return nil
}

// DisableAutostart clears the container's restart policy.
func (b *Backend) DisableAutostart(ctx context.Context) error {
	if _, err := b.cli.ContainerUpdate(ctx, b.containerName(), container.UpdateConfig{
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyDisabled},
	}); err != nil {
		return fmt.Errorf("%w: disable autostart: %w", errkind.ErrBackendIO, err)
	}
	return nil
}

// Status reads the container's state and PID.
func (b *Backend) Status(ctx context.Context) (svcmgr.Status, error) {
	info, err := b.find(ctx)
	if err != nil {
		return svcmgr.Status{}, err
	}
	if info == nil {
		return svcmgr.Status{State: svcmgr.StateNotInstalled}, nil
	}

	st := svcmgr.Status{State: svcmgr.StateStopped}
	if info.State != nil {
		if info.State.Running {
			st.State = svcmgr.StateStarted
			pid := info.State.Pid
			st.PID = &pid
		}
		if info.State.ExitCode != 0 || !info.State.Running {
			code := info.State.ExitCode
			st.LastExitCode = &code
		}
	}
	if info.HostConfig != nil {
		autostart := info.HostConfig.RestartPolicy.Name == container.RestartPolicyAlways
		st.Autostart = &autostart
	}
	id := info.ID
	st.ID = &id
	return st, nil
}

// PID returns the container's process PID, when running.
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

// ReloadConfig re-creates the container if its environment has changed,
// since the Docker API has no in-place unit rewrite analogous to
// systemd/launchd; recreation only happens when the merged environment
// actually differs from what the running container was started with.
func (b *Backend) ReloadConfig(ctx context.Context) error {
	info, err := b.find(ctx)
	if err != nil {
		return err
	}
	if info == nil || b.config.UserConfig == nil {
		return nil
	}
	snap, err := b.config.UserConfig.Snapshot()
	if err != nil {
		return fmt.Errorf("%w: snapshot user config: %w", errkind.ErrBackendIO, err)
	}
	want := map[string]string{}
	for k, v := range snap.EnvironmentVariables {
		want[k] = v
	}
	have := map[string]string{}
	if info.Config != nil {
		for _, kv := range info.Config.Env {
			for i := range kv {
				if kv[i] == '=' {
					have[kv[:i]] = kv[i+1:]
					break
				}
			}
		}
	}
	if envEqual(want, have) {
		return nil
	}
	wasRunning := info.State != nil && info.State.Running
	if err := b.Uninstall(ctx); err != nil {
		return err
	}
	if err := b.Install(ctx); err != nil {
		return err
	}
	if wasRunning {
		return b.Start(ctx)
	}
	return nil
}

func envEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// StatusCommand returns a shell-invocable status query for scripting.
func (b *Backend) StatusCommand() string {
	return "docker inspect --format '{{.State.Status}}' " + b.containerName()
}
