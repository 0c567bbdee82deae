// SPDX-License-Identifier: BSD-3-Clause

package runtime_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/runtime"
)

var errFailingService = errors.New("failing service blew up")

type failingService struct {
	name string
}

func (s *failingService) Name() string { return s.name }

func (s *failingService) Run(ctx context.Context) error {
	return errFailingService
}

func TestSupervisorOnStartReceivesContext(t *testing.T) {
	sup := runtime.NewSupervisor(nil)

	var got *runtime.Context
	sup.OnStart = func(rc *runtime.Context) { got = rc }

	err := sup.Run(context.Background(), func(rc *runtime.Context) runtime.HandlerFunc {
		return func(ctx context.Context) error { return nil }
	})
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestSupervisorOnServiceErrorFiresForFailedService(t *testing.T) {
	sup := runtime.NewSupervisor(nil)
	sup.ShutdownTimeout = 2 * time.Second

	var mu sync.Mutex
	var gotName string
	var gotErr error
	sup.OnServiceError = func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		gotName = name
		gotErr = err
	}

	err := sup.Run(context.Background(), func(rc *runtime.Context) runtime.HandlerFunc {
		_, spawnErr := rc.Spawn(&failingService{name: "flaky"})
		require.NoError(t, spawnErr)
		return func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		}
	})
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "flaky", gotName)
	require.ErrorIs(t, gotErr, errFailingService)
}
