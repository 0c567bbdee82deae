// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package ipc

import (
	"fmt"
	"os"
)

// Endpoint returns label's endpoint path of the given suffix ("",
// "health", "publisher", "subscriber", "rpc"). Named pipes proper
// (`\\.\pipe\...`) need a cgo or third-party client library no pack
// example brings in; Go's net package has supported the "unix" network
// on Windows 10+ since Go 1.12, so endpoints here are Unix-domain socket
// files under the user's temp directory instead, keeping pkg/ipc a
// single implementation across every platform Go itself supports.
func Endpoint(label, suffix string) string {
	dir := os.TempDir()
	if suffix == "" {
		return fmt.Sprintf(`%s\%s.sock`, dir, label)
	}
	return fmt.Sprintf(`%s\%s_%s.sock`, dir, label, suffix)
}

// Network is the net.Listen/net.Dial network name for this platform's
// endpoints.
const Network = "unix"
