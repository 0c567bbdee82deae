// SPDX-License-Identifier: BSD-3-Clause

package ipc_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/ipc"
)

func waitForListener(t *testing.T, endpoint string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial(ipc.Network, endpoint)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("endpoint %s never came up", endpoint)
}

func TestServerEchoesRequestsUntilCancelled(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "srv.sock")
	s := &ipc.Server{
		Endpoint: endpoint,
		Handle: func(req []byte) ([]byte, error) {
			out := make([]byte, len(req))
			copy(out, req)
			return out, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)
	waitForListener(t, endpoint)

	conn, err := net.Dial(ipc.Network, endpoint)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, ipc.WriteFrame(conn, []byte("ping")))
	resp, err := ipc.ReadFrame(conn)
	require.NoError(t, err)
	require.Equal(t, []byte("ping"), resp)
}

func TestHealthServerRespondsHealthy(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "health.sock")
	s := &ipc.HealthServer{Endpoint: endpoint}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)
	waitForListener(t, endpoint)

	client := &ipc.HealthClient{Endpoint: endpoint}
	ok, err := client.Check(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMultiplexerRoutesRequestsAndResponsesSeparately(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "mux.sock")
	ln, err := net.Listen(ipc.Network, endpoint)
	require.NoError(t, err)
	defer ln.Close()

	serverConnCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			serverConnCh <- c
		}
	}()

	clientConn, err := net.Dial(ipc.Network, endpoint)
	require.NoError(t, err)
	serverConn := <-serverConnCh

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := ipc.NewMultiplexer(ctx, clientConn)
	defer client.Abort()
	server := ipc.NewMultiplexer(ctx, serverConn)
	defer server.Abort()

	require.NoError(t, client.SendRequest([]byte("req")))
	require.NoError(t, server.SendResponse([]byte("resp")))

	req := <-server.Requests()
	require.Equal(t, ipc.KindRequest, req.Kind)
	require.Equal(t, []byte("req"), req.Payload)

	resp := <-client.Responses()
	require.Equal(t, ipc.KindResponse, resp.Kind)
	require.Equal(t, []byte("resp"), resp.Payload)
}
