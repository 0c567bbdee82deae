// SPDX-License-Identifier: BSD-3-Clause

package ipc_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/ipc"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello daemonkit")

	require.NoError(t, ipc.WriteFrame(&buf, payload))

	got, err := ipc.ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	hdr := []byte{0xff, 0xff, 0xff, 0xff}
	buf.Write(hdr)

	_, err := ipc.ReadFrame(&buf)
	require.Error(t, err)
}

func TestReadFrameRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ipc.WriteFrame(&buf, []byte("0123456789")))
	truncated := buf.Bytes()[:len(buf.Bytes())-3]

	_, err := ipc.ReadFrame(bytes.NewReader(truncated))
	require.Error(t, err)
}

func TestWriteReadEmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ipc.WriteFrame(&buf, nil))

	got, err := ipc.ReadFrame(&buf)
	require.NoError(t, err)
	require.Empty(t, got)
}
