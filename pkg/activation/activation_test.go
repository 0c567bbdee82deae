// SPDX-License-Identifier: BSD-3-Clause

package activation_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/activation"
)

func TestOpenFallsBackToBindWhenNothingInherited(t *testing.T) {
	t.Setenv("LISTEN_PID", "")
	t.Setenv("LISTEN_FDS", "")

	sockPath := filepath.Join(t.TempDir(), "ctl.sock")
	configs := []activation.Config{
		{Name: "ctl", Address: sockPath, Kind: activation.KindUnix},
		{Name: "stats", Address: "127.0.0.1:0", Kind: activation.KindTCP},
	}

	sockets, err := activation.Open(context.Background(), configs)
	require.NoError(t, err)
	require.Len(t, sockets, 2)

	require.NotNil(t, sockets[0].Listener)
	require.Nil(t, sockets[0].PacketConn)
	require.Equal(t, "ctl", sockets[0].Config.Name)
	sockets[0].Listener.Close()

	require.NotNil(t, sockets[1].Listener)
	require.Equal(t, "stats", sockets[1].Config.Name)
	sockets[1].Listener.Close()
}

func TestOpenPreservesConfigOrderForMixedKinds(t *testing.T) {
	configs := []activation.Config{
		{Name: "a", Address: "127.0.0.1:0", Kind: activation.KindTCP},
		{Name: "b", Address: "127.0.0.1:0", Kind: activation.KindUDP},
		{Name: "c", Address: "127.0.0.1:0", Kind: activation.KindTCP},
	}

	sockets, err := activation.Open(context.Background(), configs)
	require.NoError(t, err)
	require.Len(t, sockets, 3)

	require.Equal(t, "a", sockets[0].Config.Name)
	require.NotNil(t, sockets[0].Listener)
	sockets[0].Listener.Close()

	require.Equal(t, "b", sockets[1].Config.Name)
	require.NotNil(t, sockets[1].PacketConn)
	sockets[1].PacketConn.Close()

	require.Equal(t, "c", sockets[2].Config.Name)
	require.NotNil(t, sockets[2].Listener)
	sockets[2].Listener.Close()
}

func TestOpenBindFallbackRejectsBadAddress(t *testing.T) {
	configs := []activation.Config{
		{Name: "bad", Address: "not-a-valid-address", Kind: activation.KindTCP},
	}

	_, err := activation.Open(context.Background(), configs)
	require.Error(t, err)
}

func TestOpenUnixSocketIsDialable(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "dial.sock")
	configs := []activation.Config{{Name: "ctl", Address: sockPath, Kind: activation.KindUnix}}

	sockets, err := activation.Open(context.Background(), configs)
	require.NoError(t, err)
	defer sockets[0].Listener.Close()

	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	conn.Close()
}
