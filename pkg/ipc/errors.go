// SPDX-License-Identifier: BSD-3-Clause

package ipc

import "github.com/u-bmc-forks/daemonkit/pkg/errkind"

// ErrTransport is an alias for errkind.ErrTransport, the error kind every
// framing, dial, or codec failure in this package wraps.
var ErrTransport = errkind.ErrTransport
