// SPDX-License-Identifier: BSD-3-Clause

// Package file provides atomic file writes: write to a temp file in the
// same directory, then rename into place, so a reader never observes a
// partially written file. pkg/svcmgr's backends use AtomicUpdateFile to
// rewrite unit/plist files and pkg/daemonid uses AtomicCreateFile for
// persistent identifier files.
package file
