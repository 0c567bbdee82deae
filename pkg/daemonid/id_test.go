// SPDX-License-Identifier: BSD-3-Clause

package daemonid_test

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/daemonid"
)

func TestNewIDReturnsDistinctValidUUIDs(t *testing.T) {
	a := daemonid.NewID()
	b := daemonid.NewID()

	require.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestGetOrCreatePersistentIDCreatesThenReuses(t *testing.T) {
	dir := t.TempDir()

	first, err := daemonid.GetOrCreatePersistentID("id", dir)
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second, err := daemonid.GetOrCreatePersistentID("id", dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestGetOrCreatePersistentIDCreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "deeper")

	id, err := daemonid.GetOrCreatePersistentID("id", dir)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)
}

func TestUpdatePersistentIDOverwritesExisting(t *testing.T) {
	dir := t.TempDir()

	first, err := daemonid.GetOrCreatePersistentID("id", dir)
	require.NoError(t, err)

	updated, err := daemonid.UpdatePersistentID("id", dir)
	require.NoError(t, err)
	require.NotEqual(t, first, updated)

	reread, err := daemonid.GetOrCreatePersistentID("id", dir)
	require.NoError(t, err)
	require.Equal(t, updated, reread)
}
