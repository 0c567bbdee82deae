// SPDX-License-Identifier: BSD-3-Clause

package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/runtime"
)

type blockingService struct {
	name    string
	started chan struct{}
}

func (s *blockingService) Name() string { return s.name }

func (s *blockingService) Run(ctx context.Context) error {
	if s.started != nil {
		close(s.started)
	}
	<-ctx.Done()
	return nil
}

type oneshotService struct {
	name string
	ran  chan struct{}
}

func (s *oneshotService) Name() string { return s.name }

func (s *oneshotService) Run(_ context.Context) error {
	close(s.ran)
	return nil
}

func TestSpawnRecordsNamesInInsertionOrder(t *testing.T) {
	sc := runtime.NewContext(context.Background(), nil)
	require.NoError(t, sc.Start())

	for _, n := range []string{"alpha", "beta", "gamma"} {
		_, err := sc.Spawn(&blockingService{name: n})
		require.NoError(t, err)
	}

	require.Equal(t, []string{"alpha", "beta", "gamma"}, sc.Names())

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sc.Stop(stopCtx))
}

func TestSpawnRejectsEmptyName(t *testing.T) {
	sc := runtime.NewContext(context.Background(), nil)
	require.NoError(t, sc.Start())

	_, err := sc.Spawn(&blockingService{name: ""})
	require.ErrorIs(t, err, runtime.ErrNameEmpty)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sc.Stop(stopCtx))
}

func TestStopCancelsSpawnedServices(t *testing.T) {
	sc := runtime.NewContext(context.Background(), nil)
	require.NoError(t, sc.Start())

	started := make(chan struct{})
	_, err := sc.Spawn(&blockingService{name: "worker", started: started})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("service never started")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sc.Stop(stopCtx))
}

func TestDoubleStartIsRejected(t *testing.T) {
	sc := runtime.NewContext(context.Background(), nil)
	require.NoError(t, sc.Start())
	require.ErrorIs(t, sc.Start(), runtime.ErrAlreadyStarted)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sc.Stop(stopCtx))
}

func TestStopBeforeStartIsRejected(t *testing.T) {
	sc := runtime.NewContext(context.Background(), nil)
	err := sc.Stop(context.Background())
	require.ErrorIs(t, err, runtime.ErrNotStarted)
}

func TestOneshotServiceCompletesWithoutBlockingStop(t *testing.T) {
	sc := runtime.NewContext(context.Background(), nil)
	require.NoError(t, sc.Start())

	ran := make(chan struct{})
	_, err := sc.Spawn(&oneshotService{name: "init", ran: ran})
	require.NoError(t, err)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("oneshot service never ran")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sc.Stop(stopCtx))
}
