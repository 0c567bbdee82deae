// SPDX-License-Identifier: BSD-3-Clause

package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/u-bmc-forks/daemonkit/pkg/file"
)

func TestAtomicCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id")

	require.NoError(t, file.AtomicCreateFile(path, []byte("first"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first", string(got))

	err = file.AtomicCreateFile(path, []byte("second"), 0o600)
	require.ErrorIs(t, err, file.ErrFileAlreadyExists)

	got, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first", string(got), "losing creator must not clobber the existing file")
}

func TestAtomicUpdateFileReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unit")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	require.NoError(t, file.AtomicUpdateFile(path, []byte("new"), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}

func TestAtomicUpdateFileCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh")

	require.NoError(t, file.AtomicUpdateFile(path, []byte("data"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "data", string(got))
}

func TestAtomicUpdateFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target")

	require.NoError(t, file.AtomicUpdateFile(path, []byte("x"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "target", entries[0].Name())
}
