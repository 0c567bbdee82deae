// SPDX-License-Identifier: BSD-3-Clause

package file

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicUpdateFile replaces filename's content with data by writing a
// temporary file alongside it and renaming over the original, so a reader
// never observes a partial write. Unlike AtomicCreateFile this succeeds
// whether or not filename already exists; pkg/svcmgr's backends use it to
// rewrite unit/plist files in place, and pkg/daemonid uses it to roll a
// persistent identifier over to a new value. The platform split lives
// entirely in AtomicCreateFile's no-clobber guarantee — renaming over an
// existing file is already atomic on every target os.Rename supports.
func AtomicUpdateFile(filename string, data []byte, perm os.FileMode) error {
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
