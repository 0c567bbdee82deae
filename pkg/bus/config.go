// SPDX-License-Identifier: BSD-3-Clause

package bus

import (
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// Config holds a Bus's embedded NATS server settings.
type Config struct {
	serviceName     string
	storeDir        string
	enableJetStream bool
	dontListen      bool
	maxMemory       int64
	maxPayload      int32
	startupTimeout  time.Duration
	shutdownTimeout time.Duration
}

func defaultConfig() *Config {
	return &Config{
		serviceName:     "daemonkit-bus",
		storeDir:        "",
		enableJetStream: false,
		dontListen:      true,
		maxMemory:       128 << 20,
		maxPayload:      1 << 20,
		startupTimeout:  5 * time.Second,
		shutdownTimeout: 5 * time.Second,
	}
}

func (c *Config) toServerOptions() *server.Options {
	return &server.Options{
		ServerName:         c.serviceName,
		DontListen:         c.dontListen,
		JetStream:          c.enableJetStream,
		StoreDir:           c.storeDir,
		JetStreamMaxMemory: c.maxMemory,
		MaxPayload:         c.maxPayload,
	}
}

// Option configures a Bus at construction time.
type Option func(*Config)

// WithServiceName overrides the bus's svc.Service name and NATS server
// name.
func WithServiceName(name string) Option {
	return func(c *Config) { c.serviceName = name }
}

// WithJetStream enables JetStream persistence, storing state under dir.
func WithJetStream(dir string) Option {
	return func(c *Config) {
		c.enableJetStream = true
		c.storeDir = dir
	}
}

// WithStartupTimeout overrides how long Run waits for the embedded
// server to become ready before failing.
func WithStartupTimeout(d time.Duration) Option {
	return func(c *Config) { c.startupTimeout = d }
}

// WithShutdownTimeout overrides the lame-duck shutdown budget.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) { c.shutdownTimeout = d }
}
