// SPDX-License-Identifier: BSD-3-Clause

package runtime

import (
	"context"
	"fmt"

	"cirello.io/oversight/v2"

	"github.com/u-bmc-forks/daemonkit/pkg/svc"
)

// wrapChild adapts a svc.Service into an oversight.ChildProcess,
// recovering panics into errors carrying the service name, and reporting
// every non-nil, non-cancellation error to report so the owning Context
// can aggregate per-service failures.
func wrapChild(s svc.Service, report func(name string, err error)) oversight.ChildProcess {
	name := s.Name()
	return func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s %w: %v", name, ErrServicePanicked, r)
			}
			if err != nil && ctx.Err() == nil {
				report(name, err)
			}
		}()

		return s.Run(ctx)
	}
}
