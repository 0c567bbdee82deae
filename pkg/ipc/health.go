// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"context"
	"fmt"
	"net"
)

// healthyResponse is the fixed payload HealthServer writes back.
const healthyResponse = "healthy"

// HealthServer answers liveness probes on the "health" endpoint: it reads
// one byte and writes back healthyResponse.
type HealthServer struct {
	Endpoint string
}

// Serve listens on s.Endpoint until ctx is done.
func (s *HealthServer) Serve(ctx context.Context) error {
	ln, err := net.Listen(Network, s.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %w", ErrTransport, s.Endpoint, err)
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: accept: %w", ErrTransport, err)
		}
		go func(c net.Conn) {
			defer c.Close()
			var probe [1]byte
			if _, err := c.Read(probe[:]); err != nil {
				return
			}
			c.Write([]byte(healthyResponse))
		}(conn)
	}
}

// HealthClient probes a HealthServer's endpoint.
type HealthClient struct {
	Endpoint string
}

// Check dials the endpoint, writes one byte, and reports healthy if any
// bytes came back. Any dial or I/O error is returned wrapped in
// ErrTransport rather than treated as "unhealthy".
func (c *HealthClient) Check(ctx context.Context) (bool, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, Network, c.Endpoint)
	if err != nil {
		return false, fmt.Errorf("%w: dial %s: %w", ErrTransport, c.Endpoint, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte{0}); err != nil {
		return false, fmt.Errorf("%w: write probe: %w", ErrTransport, err)
	}
	buf := make([]byte, len(healthyResponse))
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return false, fmt.Errorf("%w: read probe: %w", ErrTransport, err)
	}
	return n > 0, nil
}
