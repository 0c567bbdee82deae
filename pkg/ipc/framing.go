// SPDX-License-Identifier: BSD-3-Clause

// Package ipc is daemonkit's local transport: length-delimited framing
// over a Unix domain socket (on Windows too, as a socket file under the
// temp directory rather than a named pipe), a pluggable Codec for
// the frame payload, and three usage patterns built on top — a
// request/response Server, a Publisher/Subscriber fan-out, and a
// two-way Multiplexer. Unlike pkg/bus it needs no broker in the process:
// the two peers speak the framed protocol directly.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame's payload, guarding against a
// corrupt or hostile length prefix causing an unbounded allocation.
const MaxFrameSize = 64 << 20 // 64 MiB

// WriteFrame writes payload to w as a 4-byte big-endian length prefix
// followed by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("%w: write frame header: %w", ErrTransport, err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("%w: write frame payload: %w", ErrTransport, err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: read frame header: %w", ErrTransport, err)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: frame of %d bytes exceeds MaxFrameSize", ErrTransport, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: read frame payload: %w", ErrTransport, err)
	}
	return payload, nil
}
