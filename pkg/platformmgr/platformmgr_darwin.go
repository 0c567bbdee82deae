// SPDX-License-Identifier: BSD-3-Clause

//go:build darwin

package platformmgr

import (
	daemonkit "github.com/u-bmc-forks/daemonkit"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr"
	"github.com/u-bmc-forks/daemonkit/pkg/svcmgr/launchdbackend"
)

func newPlatform(cfg daemonkit.ServiceConfig) (svcmgr.Manager, error) {
	return launchdbackend.New(cfg), nil
}
