// SPDX-License-Identifier: BSD-3-Clause

//go:build windows

package platformmgr

import (
	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr/windowsbackend"
)

func newPlatform(cfg daemonkit.ServiceConfig) (svcmgr.Manager, error) {
	return windowsbackend.New(cfg), nil
}
