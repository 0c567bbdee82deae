// SPDX-License-Identifier: BSD-3-Clause

package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/watch"
)

func TestDebouncedBatchCollectsBurst(t *testing.T) {
	dir := t.TempDir()

	s, store := watch.New(watch.WithPaths(dir), watch.WithDebounce(100*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := store.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b"), []byte("2"), 0o644))

	select {
	case ev := <-sub:
		require.False(t, ev.Closed)
		require.GreaterOrEqual(t, len(ev.Value), 1)
		for _, p := range ev.Value {
			require.Equal(t, dir, filepath.Dir(p))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for debounced batch")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatchCommandAddsPathAtRuntime(t *testing.T) {
	initial := t.TempDir()
	added := t.TempDir()

	s, store := watch.New(watch.WithPaths(initial), watch.WithDebounce(100*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := store.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	s.Commands() <- watch.Watch{Path: added}
	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(added, "new")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	select {
	case ev := <-sub:
		require.Contains(t, ev.Value, target)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event from runtime-added path")
	}

	cancel()
	require.NoError(t, <-done)
}
