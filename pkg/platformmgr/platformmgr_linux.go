// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package platformmgr

import (
	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr/systemdbackend"
)

func newPlatform(cfg daemonkit.ServiceConfig) (svcmgr.Manager, error) {
	return systemdbackend.New(cfg), nil
}
