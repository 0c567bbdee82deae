// SPDX-License-Identifier: BSD-3-Clause

package daemonid

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/u-bmc-forks/daemonkit/pkg/file"
)

// idFileMode is deliberately 0o600, not os.ModePerm: the file holds a
// standing node identity, not transient data, and nothing outside this
// process's own user needs to read or overwrite it.
const idFileMode = 0o600

// NewID returns a freshly generated, unpersisted UUID. Callers that need
// the same value across restarts want GetOrCreatePersistentID instead.
func NewID() string {
	return uuid.New().String()
}

// GetOrCreatePersistentID reads the UUID stored in path/name, creating it
// with a new random UUID if the file does not yet exist. Two processes
// racing to create the file for the first time both end up returning the
// UUID that actually landed on disk, not necessarily the one they
// generated themselves — the write is atomic, but only one writer wins.
//
// pkg/bus.Relay is the production caller: it keeps name's content stable
// across restarts of the same daemonkit installation so ServiceInfo
// announcements carry the same NodeID every time.
func GetOrCreatePersistentID(name, path string) (string, error) {
	fullPath := filepath.Join(path, name)

	_, statErr := os.Stat(fullPath)
	switch {
	case statErr == nil:
		return readPersistedID(fullPath)
	case !os.IsNotExist(statErr):
		return "", fmt.Errorf("%w: %w", ErrFileStat, statErr)
	}

	if err := os.MkdirAll(path, 0o700); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDirectoryCreation, err)
	}

	id := uuid.New()
	switch err := file.AtomicCreateFile(fullPath, []byte(id.String()), idFileMode); {
	case err == nil:
		return id.String(), nil
	case errors.Is(err, file.ErrFileAlreadyExists) || os.IsExist(err):
		return readPersistedID(fullPath)
	default:
		return "", fmt.Errorf("%w: %w", ErrFileCreation, err)
	}
}

func readPersistedID(fullPath string) (string, error) {
	b, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileRead, err)
	}

	id, err := uuid.ParseBytes(bytes.TrimSpace(b))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidUUID, err)
	}

	return id.String(), nil
}

// UpdatePersistentID overwrites path/name with a freshly generated UUID,
// discarding whatever identity was stored there before, and returns the
// new value.
func UpdatePersistentID(name, path string) (string, error) {
	id := uuid.New()

	if err := file.AtomicUpdateFile(filepath.Join(path, name), []byte(id.String()), idFileMode); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileUpdate, err)
	}

	return id.String(), nil
}
