// SPDX-License-Identifier: BSD-3-Clause

// Package bus relays daemonkit's cross-process event types — Signal,
// RouteChange, ServiceInfo — between cooperating processes on the same
// host over an embedded github.com/nats-io/nats-server/v2 instance. The
// in-process eventbus stays the primary delivery path; this package is a
// thin relay layer that pkg/eventbus-based services opt into when an
// event needs to cross the process boundary.
package bus

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
	"github.com/u-bmc-forks/daemonkit/pkg/svc"
)

// Bus is a svc.Service embedding a NATS server for process-local and
// cross-process relay of daemonkit's externally-surfaced event types.
// It should be spawned ahead of any service that relays through it, so
// the broker is accepting connections before the first publish.
type Bus struct {
	config *Config
	server *server.Server
}

var _ svc.Service = (*Bus)(nil)

// New builds a Bus from opts.
func New(opts ...Option) *Bus {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Bus{config: cfg}
}

// Name implements svc.Service.
func (b *Bus) Name() string { return b.config.serviceName }

// Run starts the embedded NATS server, blocks until ctx is cancelled,
// then performs a lame-duck shutdown bounded by the configured timeout.
func (b *Bus) Run(ctx context.Context) error {
	opts := b.config.toServerOptions()
	ns, err := server.NewServer(opts)
	if err != nil {
		return fmt.Errorf("%w: create nats server: %w", ErrBusStartup, err)
	}
	b.server = ns
	b.server.SetLoggerV2(obslog.NewNATSLogger(obslog.Global()), true, false, false)

	b.server.Start()
	if !b.server.ReadyForConnections(b.config.startupTimeout) {
		b.server.Shutdown()
		return fmt.Errorf("%w: not ready within %v", ErrBusStartup, b.config.startupTimeout)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.config.shutdownTimeout)
	defer cancel()

	b.server.LameDuckShutdown()
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.server.Shutdown()
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
	}
	return nil
}

// ConnProvider returns a nats.InProcessConnProvider bridging a Bus to
// nats.go clients that want an in-process connection, polling until the
// server is available up to the configured startup timeout.
func (b *Bus) ConnProvider() *ConnProvider {
	deadline := time.Now().Add(b.config.startupTimeout)
	for b.server == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	return &ConnProvider{server: b.server}
}

// ConnProvider provides in-process connections to a Bus's embedded NATS
// server.
type ConnProvider struct {
	server *server.Server
}

// InProcessConn implements nats.InProcessConnProvider.
func (p *ConnProvider) InProcessConn() (net.Conn, error) {
	if p.server == nil {
		return nil, ErrNotAvailable
	}
	if !p.server.ReadyForConnections(time.Minute) {
		return nil, ErrNotReady
	}
	conn, err := p.server.InProcessConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	return conn, nil
}

var _ nats.InProcessConnProvider = (*ConnProvider)(nil)
