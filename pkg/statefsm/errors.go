// SPDX-License-Identifier: BSD-3-Clause

package statefsm

import "errors"

// ErrInvalidTransition is returned by Fire when trigger cannot happen from
// the current state.
var ErrInvalidTransition = errors.New("invalid state transition")
