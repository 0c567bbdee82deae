// SPDX-License-Identifier: BSD-3-Clause

//go:build darwin

package activation

/*
#include <stdlib.h>
#include <launch.h>

// launch_activate_socket is declared in <launch.h> but deprecated
// without a drop-in replacement for unprivileged daemons; it is still
// the only way to retrieve launchd-activated descriptors from Go
// without reimplementing the private XPC handshake launchd uses
// internally.
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

// inheritedSockets calls launchd's launch_activate_socket(3) once per
// configured name; a name may legitimately yield more than one
// descriptor (one per listening address family, for example), and all
// of them are returned under that config's slot, in the order launchd
// reported them.
func inheritedSockets(configs []Config) ([][]*fdSocket, error) {
	out := make([][]*fdSocket, len(configs))
	for i, cfg := range configs {
		if cfg.Name == "" {
			continue
		}
		cname := C.CString(cfg.Name)
		var fds *C.int
		var cnt C.size_t
		rc := C.launch_activate_socket(cname, &fds, &cnt)
		C.free(unsafe.Pointer(cname))
		if rc != 0 || cnt == 0 {
			continue
		}
		defer C.free(unsafe.Pointer(fds))

		slice := unsafe.Slice(fds, int(cnt))
		group := make([]*fdSocket, 0, int(cnt))
		for j := 0; j < int(cnt); j++ {
			name := cfg.Name
			if j > 0 {
				name = fmt.Sprintf("%s-%d", cfg.Name, j)
			}
			group = append(group, &fdSocket{file: os.NewFile(uintptr(slice[j]), name)})
		}
		out[i] = group
	}
	return out, nil
}

func loosenUnixPerms(path string) {
	os.Chmod(path, 0o666)
}
