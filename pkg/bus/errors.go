// SPDX-License-Identifier: BSD-3-Clause

package bus

import "errors"

var (
	// ErrBusStartup indicates the embedded NATS server failed to start
	// or become ready within its configured timeout.
	ErrBusStartup = errors.New("bus startup failed")
	// ErrNotAvailable indicates no server instance is available yet.
	ErrNotAvailable = errors.New("bus server not available")
	// ErrNotReady indicates the server exists but is not yet accepting
	// connections.
	ErrNotReady = errors.New("bus server not ready")
)
