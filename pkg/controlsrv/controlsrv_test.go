// SPDX-License-Identifier: BSD-3-Clause

package controlsrv_test

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/activation"
	"github.com/u-bmc-forks/daemonkit/pkg/controlsrv"
)

func TestServiceServesHealthCheckOverUnixSocket(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "ctl.sock")
	svc := controlsrv.New("test-service", activation.Config{
		Name:    "ctl",
		Address: sockPath,
		Kind:    activation.KindUnix,
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErrCh := make(chan error, 1)
	go func() { runErrCh <- svc.Run(ctx) }()

	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", sockPath)
			},
		},
		Timeout: 2 * time.Second,
	}

	var resp *http.Response
	var err error
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err = client.Get("http://unix/grpc.health.v1.Health/Check")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, err)
	resp.Body.Close()
	require.NotEqual(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	require.NoError(t, <-runErrCh)
}
