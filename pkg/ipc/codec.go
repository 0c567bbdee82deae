// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// Codec encodes and decodes frame payloads. All four built-in
// implementations are backed by github.com/ugorji/go/codec, giving
// daemonkit one dependency for every wire format it offers.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type handleCodec struct {
	handle codec.Handle
}

func (c handleCodec) Encode(v any) ([]byte, error) {
	var out []byte
	enc := codec.NewEncoderBytes(&out, c.handle)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrTransport, err)
	}
	return out, nil
}

func (c handleCodec) Decode(data []byte, v any) error {
	dec := codec.NewDecoderBytes(data, c.handle)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrTransport, err)
	}
	return nil
}

// JSONCodec encodes frame payloads as JSON.
func JSONCodec() Codec { return handleCodec{handle: new(codec.JsonHandle)} }

// MsgpackCodec encodes frame payloads as MessagePack.
func MsgpackCodec() Codec { return handleCodec{handle: new(codec.MsgpackHandle)} }

// CborCodec encodes frame payloads as CBOR.
func CborCodec() Codec { return handleCodec{handle: new(codec.CborHandle)} }

// BincCodec encodes frame payloads with ugorji's Binc format, the most
// compact of the four built-in codecs. Use it when both peers are
// daemonkit processes and wire size matters more than interoperability.
func BincCodec() Codec { return handleCodec{handle: new(codec.BincHandle)} }
