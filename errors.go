// SPDX-License-Identifier: BSD-3-Clause

package daemonkit

import "errors"

// ErrInvalidIdentifier is returned by ParseLabel when its input does not
// split into exactly three non-empty dot-separated segments.
var ErrInvalidIdentifier = errors.New("invalid label identifier")
