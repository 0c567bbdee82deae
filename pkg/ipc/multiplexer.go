// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"context"
	"fmt"
	"net"
)

// FrameKind distinguishes a Multiplexer frame as a request the peer
// should answer or a response to one of ours.
type FrameKind uint8

const (
	KindRequest FrameKind = iota
	KindResponse
)

// TaggedFrame is one frame of a Multiplexer's wire protocol: a kind tag
// plus an opaque payload. The payload's own framing (request ID,
// correlation) is left to the caller; Multiplexer only demuxes by Kind.
type TaggedFrame struct {
	Kind    FrameKind
	Payload []byte
}

func (f TaggedFrame) marshal() []byte {
	out := make([]byte, 1+len(f.Payload))
	out[0] = byte(f.Kind)
	copy(out[1:], f.Payload)
	return out
}

func unmarshalTaggedFrame(b []byte) (TaggedFrame, error) {
	if len(b) < 1 {
		return TaggedFrame{}, fmt.Errorf("%w: tagged frame too short", ErrTransport)
	}
	return TaggedFrame{Kind: FrameKind(b[0]), Payload: b[1:]}, nil
}

// Multiplexer splits one connection into independent request and
// response streams. A reader goroutine demuxes
// incoming frames into Requests()/Responses(); callers write with
// SendRequest/SendResponse, each serialized through a single writer
// goroutine so concurrent senders don't interleave frame bytes.
type Multiplexer struct {
	conn       net.Conn
	requests   chan TaggedFrame
	responses  chan TaggedFrame
	writeCh    chan writeJob
	done       chan struct{}
	writerDone chan struct{}
}

type writeJob struct {
	frame TaggedFrame
	errCh chan error
}

// NewMultiplexer wraps conn and starts its reader and writer goroutines.
// Callers must call Abort (or cancel ctx) to stop both when finished.
func NewMultiplexer(ctx context.Context, conn net.Conn) *Multiplexer {
	m := &Multiplexer{
		conn:       conn,
		requests:   make(chan TaggedFrame, 16),
		responses:  make(chan TaggedFrame, 16),
		writeCh:    make(chan writeJob, 16),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	go m.readLoop(ctx)
	go m.writeLoop(ctx)
	return m
}

func (m *Multiplexer) readLoop(ctx context.Context) {
	defer close(m.requests)
	defer close(m.responses)
	for {
		raw, err := ReadFrame(m.conn)
		if err != nil {
			return
		}
		tf, err := unmarshalTaggedFrame(raw)
		if err != nil {
			continue
		}
		var dst chan TaggedFrame
		if tf.Kind == KindRequest {
			dst = m.requests
		} else {
			dst = m.responses
		}
		select {
		case dst <- tf:
		case <-ctx.Done():
			return
		case <-m.done:
			return
		}
	}
}

func (m *Multiplexer) writeLoop(ctx context.Context) {
	defer close(m.writerDone)
	for {
		select {
		case job := <-m.writeCh:
			job.errCh <- WriteFrame(m.conn, job.frame.marshal())
		case <-ctx.Done():
			return
		case <-m.done:
			return
		}
	}
}

func (m *Multiplexer) send(kind FrameKind, payload []byte) error {
	errCh := make(chan error, 1)
	select {
	case m.writeCh <- writeJob{frame: TaggedFrame{Kind: kind, Payload: payload}, errCh: errCh}:
	case <-m.done:
		return fmt.Errorf("%w: multiplexer aborted", ErrTransport)
	case <-m.writerDone:
		return fmt.Errorf("%w: multiplexer writer stopped", ErrTransport)
	}
	select {
	case err := <-errCh:
		return err
	case <-m.writerDone:
		// The write may still have completed just before the writer
		// exited; prefer its real result when one is buffered.
		select {
		case err := <-errCh:
			return err
		default:
			return fmt.Errorf("%w: multiplexer writer stopped", ErrTransport)
		}
	}
}

// SendRequest writes payload as a request frame.
func (m *Multiplexer) SendRequest(payload []byte) error { return m.send(KindRequest, payload) }

// SendResponse writes payload as a response frame.
func (m *Multiplexer) SendResponse(payload []byte) error { return m.send(KindResponse, payload) }

// Requests yields incoming request frames.
func (m *Multiplexer) Requests() <-chan TaggedFrame { return m.requests }

// Responses yields incoming response frames.
func (m *Multiplexer) Responses() <-chan TaggedFrame { return m.responses }

// Abort stops both goroutines and closes the underlying connection.
func (m *Multiplexer) Abort() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
	m.conn.Close()
}
