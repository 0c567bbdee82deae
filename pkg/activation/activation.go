// SPDX-License-Identifier: BSD-3-Clause

// Package activation converts sockets handed down by the host's process
// supervisor — systemd's LISTEN_FDS, launchd's launch_activate_socket,
// or nothing at all — into the net.Listener/net.PacketConn values
// pkg/controlsrv and application code bind to, falling back to a plain
// self-bind when nothing was inherited.
package activation

import (
	"context"
	"fmt"
	"net"
)

// SocketKind is the kind of socket a Config describes.
type SocketKind int

const (
	KindUnix SocketKind = iota
	KindTCP
	KindUDP
)

// Config describes one socket slot to open, in the order the caller
// expects results back.
type Config struct {
	Name    string
	Address string
	Kind    SocketKind
}

// Socket is one opened result: exactly one of Listener or PacketConn is
// set, matching Kind.
type Socket struct {
	Config     Config
	Listener   net.Listener
	PacketConn net.PacketConn
}

// Open resolves each of configs into one or more Sockets, preferring
// inherited file descriptors from the host supervisor and falling back
// to a fresh bind at Config.Address when a slot has none. inheritedSockets
// returns its result grouped per config (config i's inherited FDs, in
// whatever order the platform handed them back), so the flattened output
// preserves the invariant callers depend on: all of config i's sockets
// precede config i+1's, and a config with no inherited FD yields exactly
// one self-bound socket.
func Open(ctx context.Context, configs []Config) ([]Socket, error) {
	inherited, err := inheritedSockets(configs)
	if err != nil {
		return nil, err
	}

	out := make([]Socket, 0, len(configs))
	for i, cfg := range configs {
		var fds []*fdSocket
		if i < len(inherited) {
			fds = inherited[i]
		}
		if len(fds) == 0 {
			sock, err := bindFallback(cfg)
			if err != nil {
				return nil, err
			}
			out = append(out, sock)
			continue
		}
		for _, f := range fds {
			sock, err := wrapInherited(cfg, f)
			if err != nil {
				return nil, err
			}
			out = append(out, sock)
		}
	}
	return out, nil
}

func wrapInherited(cfg Config, f *fdSocket) (Socket, error) {
	switch cfg.Kind {
	case KindUDP:
		pc, err := net.FilePacketConn(f.file)
		f.file.Close()
		if err != nil {
			return Socket{}, fmt.Errorf("%w: %s: %w", ErrSocketActivation, cfg.Name, err)
		}
		return Socket{Config: cfg, PacketConn: pc}, nil
	default:
		ln, err := net.FileListener(f.file)
		f.file.Close()
		if err != nil {
			return Socket{}, fmt.Errorf("%w: %s: %w", ErrSocketActivation, cfg.Name, err)
		}
		return Socket{Config: cfg, Listener: ln}, nil
	}
}

func bindFallback(cfg Config) (Socket, error) {
	switch cfg.Kind {
	case KindUDP:
		pc, err := net.ListenPacket("udp", cfg.Address)
		if err != nil {
			return Socket{}, fmt.Errorf("%w: fallback bind %s: %w", ErrSocketActivation, cfg.Address, err)
		}
		return Socket{Config: cfg, PacketConn: pc}, nil
	case KindUnix:
		ln, err := net.Listen("unix", cfg.Address)
		if err != nil {
			return Socket{}, fmt.Errorf("%w: fallback bind %s: %w", ErrSocketActivation, cfg.Address, err)
		}
		loosenUnixPerms(cfg.Address)
		return Socket{Config: cfg, Listener: ln}, nil
	default:
		ln, err := net.Listen("tcp", cfg.Address)
		if err != nil {
			return Socket{}, fmt.Errorf("%w: fallback bind %s: %w", ErrSocketActivation, cfg.Address, err)
		}
		return Socket{Config: cfg, Listener: ln}, nil
	}
}
