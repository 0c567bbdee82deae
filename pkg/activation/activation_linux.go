// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package activation

import (
	"os"
	"strconv"
	"strings"
	"syscall"
)

// listenFDsStart is the first inherited file descriptor number systemd
// guarantees, per sd_listen_fds(3).
const listenFDsStart = 3

// inheritedSockets reads LISTEN_PID/LISTEN_FDS/LISTEN_FDNAMES the way
// systemd's sd_listen_fds(3) does: only claim the FDs if LISTEN_PID
// matches our own pid, then match names against configs in order,
// falling back to positional assignment when LISTEN_FDNAMES is absent
// or a name has no match. systemd socket units can list the same
// FileDescriptorName more than once (one stream listener per address
// family is the common case), so every fd under a matching name goes to
// that config's slot, not just the first.
func inheritedSockets(configs []Config) ([][]*fdSocket, error) {
	pidStr := os.Getenv("LISTEN_PID")
	fdsStr := os.Getenv("LISTEN_FDS")
	if pidStr == "" || fdsStr == "" {
		return nil, nil
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid != os.Getpid() {
		return nil, nil
	}
	n, err := strconv.Atoi(fdsStr)
	if err != nil || n <= 0 {
		return nil, nil
	}

	names := strings.Split(os.Getenv("LISTEN_FDNAMES"), ":")
	byName := make(map[string][]int)
	for i := 0; i < n; i++ {
		fd := listenFDsStart + i
		syscall.CloseOnExec(fd)
		name := ""
		if i < len(names) {
			name = names[i]
		}
		byName[name] = append(byName[name], fd)
	}

	out := make([][]*fdSocket, len(configs))
	for i, cfg := range configs {
		fds := byName[cfg.Name]
		if len(fds) == 0 {
			fds = byName[""]
			if len(fds) > 0 {
				fds = fds[:1]
				byName[""] = byName[""][1:]
			}
		} else {
			delete(byName, cfg.Name)
		}
		for _, fd := range fds {
			out[i] = append(out[i], &fdSocket{file: os.NewFile(uintptr(fd), cfg.Name)})
		}
	}
	return out, nil
}

func loosenUnixPerms(path string) {
	os.Chmod(path, 0o666)
}
