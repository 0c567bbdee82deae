// SPDX-License-Identifier: BSD-3-Clause

//go:build !windows

package ipc

import "fmt"

// Endpoint returns the Unix domain socket path for label's endpoint of
// the given suffix ("", "health", "publisher", "subscriber", "rpc").
func Endpoint(label, suffix string) string {
	if suffix == "" {
		return fmt.Sprintf("/tmp/%s.sock", label)
	}
	return fmt.Sprintf("/tmp/%s_%s.sock", label, suffix)
}

// Network is the net.Listen/net.Dial network name for this platform's
// endpoints.
const Network = "unix"
