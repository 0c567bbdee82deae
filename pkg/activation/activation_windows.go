// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package activation

import "golang.org/x/sys/windows"

// inheritedSockets never finds anything on Windows: the platform has no
// socket-handoff mechanism analogous to systemd or launchd, so every
// slot always falls back to a self-bind.
func inheritedSockets(configs []Config) ([][]*fdSocket, error) {
	return nil, nil
}

// loosenUnixPerms sets a DACL on path granting connect access to all
// local authenticated users, since Windows named-pipe/unix-socket
// emulation does not honor POSIX permission bits.
func loosenUnixPerms(path string) {
	sd, err := windows.SecurityDescriptorFromString("D:(A;;GA;;;AU)")
	if err != nil {
		return
	}
	dacl, _, err := sd.DACL()
	if err != nil {
		return
	}
	windows.SetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.DACL_SECURITY_INFORMATION,
		nil, nil, dacl, nil,
	)
}
