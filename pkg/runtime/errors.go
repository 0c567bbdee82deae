// SPDX-License-Identifier: BSD-3-Clause

package runtime

import "errors"

var (
	// ErrNameEmpty indicates a service was spawned with an empty name.
	ErrNameEmpty = errors.New("service name cannot be empty")
	// ErrAddService indicates a service could not be added to the supervision tree.
	ErrAddService = errors.New("failed to add service")
	// ErrAlreadyStarted indicates Start was called more than once on a Context.
	ErrAlreadyStarted = errors.New("service context already started")
	// ErrNotStarted indicates Stop was called before Start.
	ErrNotStarted = errors.New("service context not started")
	// ErrServicePanicked indicates a service panicked during execution.
	ErrServicePanicked = errors.New("service panicked during execution")
)
