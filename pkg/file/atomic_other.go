// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicCreateFile creates filename with the given content, failing with
// ErrFileAlreadyExists if it already exists. Neither Darwin nor Windows
// exposes an atomic rename-without-replace syscall through
// golang.org/x/sys in a portable way, so the no-clobber guarantee here
// comes from opening the final path with O_EXCL before the temp file is
// ever written, rather than from the rename itself (see atomic.go for
// the Linux implementation, which uses renameat2's RENAME_NOREPLACE).
// AtomicUpdateFile is shared between platforms; see update.go.
func AtomicCreateFile(filename string, data []byte, perm os.FileMode) error {
	probe, err := os.OpenFile(filename, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileAlreadyExists, filename)
		}
		return fmt.Errorf("%w: %w", ErrTemporaryFileCreation, err)
	}
	probe.Close()
	os.Remove(filename)

	dir := filepath.Dir(filename)
	tmpfile, err := os.CreateTemp(dir, fmt.Sprintf(".%s.tmp.*", filepath.Base(filename)))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTemporaryFileCreation, err)
	}
	tmpname := tmpfile.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpname)
		}
	}()

	if _, err = tmpfile.Write(data); err != nil {
		_ = tmpfile.Close()
		return fmt.Errorf("%w: %w", ErrTemporaryFileWrite, err)
	}
	if err = tmpfile.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrTemporaryFileClose, err)
	}
	if err = os.Chmod(tmpname, perm); err != nil {
		return fmt.Errorf("%w: %w", ErrTemporaryFileChmod, err)
	}
	if err = os.Rename(tmpname, filename); err != nil {
		return fmt.Errorf("%w: %w", ErrAtomicRename, err)
	}
	return nil
}
