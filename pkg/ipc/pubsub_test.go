// SPDX-License-Identifier: BSD-3-Clause

package ipc_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/ipc"
)

func TestPublisherServerFansOutToMatchingTopic(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "pub.sock")
	srv := &ipc.PublisherServer{Endpoint: endpoint}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)
	waitForListener(t, endpoint)

	sub := &ipc.Subscriber{Endpoint: endpoint, Topics: []string{"a"}}
	conn, err := sub.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond) // let PublisherServer register the subscriber
	srv.Publish("b", []byte("miss"))
	srv.Publish("a", []byte("hit"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	frame, err := ipc.ReadFrame(conn)
	require.NoError(t, err)
	require.Equal(t, []byte("hit"), frame)
}

func TestPublisherServerEvictsSlowSubscriber(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "pub.sock")
	var logBuf bytes.Buffer
	srv := &ipc.PublisherServer{
		Endpoint:      endpoint,
		QueueCapacity: 1,
		Logger:        slog.New(slog.NewTextHandler(&logBuf, nil)),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)
	waitForListener(t, endpoint)

	sub := &ipc.Subscriber{Endpoint: endpoint, Topics: []string{"a"}}
	conn, err := sub.Connect(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond) // let PublisherServer register the subscriber

	// The subscriber never reads, so the delivery goroutine jams on the
	// socket write once the payloads outgrow the kernel buffer and the
	// one-slot queue stays full. After enough back-to-back full-queue
	// publishes the server must give up on the subscriber entirely.
	payload := bytes.Repeat([]byte("x"), 1<<20)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(logBuf.String(), "evicting slow subscriber") {
		srv.Publish("a", payload)
		time.Sleep(10 * time.Millisecond)
	}
	require.Contains(t, logBuf.String(), "evicting slow subscriber")

	// Once evicted, the server has closed its side; draining whatever was
	// buffered must end in a read error rather than fresh frames forever.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, err := ipc.ReadFrame(conn); err != nil {
			break
		}
	}
}
