// SPDX-License-Identifier: BSD-3-Clause

package activation

import (
	"os"

	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
)

// ErrSocketActivation is returned for any failure inheriting or binding
// an activation socket.
var ErrSocketActivation = errkind.ErrSocketActivation

// fdSocket wraps one inherited file descriptor, letting activation.go's
// dispatch logic stay free of build tags; inheritedSockets (platform
// specific) is the only place that constructs one.
type fdSocket struct {
	file *os.File
}
