// SPDX-License-Identifier: BSD-3-Clause

package ipc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/ipc"
)

type codecFixture struct {
	A string
	B int
}

func TestCodecsRoundTrip(t *testing.T) {
	codecs := map[string]ipc.Codec{
		"json":    ipc.JSONCodec(),
		"msgpack": ipc.MsgpackCodec(),
		"cbor":    ipc.CborCodec(),
		"binc":    ipc.BincCodec(),
	}

	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			in := codecFixture{A: "x", B: 42}
			data, err := c.Encode(in)
			require.NoError(t, err)

			var out codecFixture
			require.NoError(t, c.Decode(data, &out))
			require.Equal(t, in, out)
		})
	}
}
