// SPDX-License-Identifier: BSD-3-Clause

// Package errkind defines the sentinel error kinds daemonkit's components
// wrap their own errors around, so callers can classify a failure with
// errors.Is regardless of which backend or transport produced it.
// Cancellation is not a kind here: callers check context.Canceled directly.
package errkind

import "errors"

var (
	// ErrBackendIO covers failures talking to a service-manager backend:
	// systemctl/launchctl subprocess failures, a dbus call erroring out, a
	// Windows SCM handle operation failing, a Docker API call failing.
	ErrBackendIO = errors.New("service manager backend I/O error")

	// ErrTransport covers pkg/ipc and pkg/bus failures: dial failures,
	// frame I/O errors, codec encode/decode errors.
	ErrTransport = errors.New("ipc transport error")

	// ErrSignalSetup covers failures installing an OS signal/ctrl handler.
	ErrSignalSetup = errors.New("signal handler setup error")

	// ErrSocketActivation covers failures validating or converting an
	// inherited socket-activation file descriptor.
	ErrSocketActivation = errors.New("socket activation error")

	// ErrServiceFailure covers a background service's Run returning a
	// non-nil, non-context.Canceled error.
	ErrServiceFailure = errors.New("service failure")
)
