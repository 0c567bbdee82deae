// SPDX-License-Identifier: BSD-3-Clause

package daemonconfig_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/daemonconfig"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestServiceCurrentLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	writeConfig(t, path, `log_level = "info"`)

	s, _ := daemonconfig.New(path, daemonconfig.FormatTOML)
	k, err := s.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, "info", k.String("log_level"))
}

func TestServicePublishesChangeOnReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	writeConfig(t, path, `log_level = "info"`)

	s, store := daemonconfig.New(path, daemonconfig.FormatTOML,
		daemonconfig.WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := store.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Give the watcher a moment to establish before mutating the file.
	time.Sleep(200 * time.Millisecond)
	writeConfig(t, path, `log_level = "debug"`)

	select {
	case ev := <-sub:
		require.False(t, ev.Closed)
		require.Equal(t, 0, ev.Lagged)
		require.Equal(t, "info", ev.Value.Old.String("log_level"))
		require.Equal(t, "debug", ev.Value.New.String("log_level"))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config change event")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestServiceKeepsSnapshotOnParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	writeConfig(t, path, `log_level = "info"`)

	s, store := daemonconfig.New(path, daemonconfig.FormatTOML,
		daemonconfig.WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := store.Subscribe(ctx)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	writeConfig(t, path, `log_level = `) // invalid toml

	// The broken write produces no event; the next valid one diffs
	// against the still-authoritative original snapshot.
	time.Sleep(300 * time.Millisecond)
	writeConfig(t, path, `log_level = "warn"`)

	select {
	case ev := <-sub:
		require.Equal(t, "info", ev.Value.Old.String("log_level"))
		require.Equal(t, "warn", ev.Value.New.String("log_level"))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config change event")
	}

	cancel()
	require.NoError(t, <-done)
}
