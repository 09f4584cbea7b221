// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WorkDir is a uniquely named temporary build directory. Unique names make
// concurrent builds safe; there is no shared mutable state between builds.
//
// Acquisition and release are paired: create with [NewWorkDir], release
// with a deferred [WorkDir.Release] so cleanup runs on every exit path.
type WorkDir struct {
	Path string
}

// NewWorkDir creates a work directory under baseDir, or [os.TempDir] if
// baseDir is empty.
func NewWorkDir(baseDir string) (*WorkDir, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	path := filepath.Join(baseDir, "microbeam-"+uuid.NewString())

	err := os.MkdirAll(path, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	return &WorkDir{Path: path}, nil
}

// Join returns a path inside the work directory.
func (w *WorkDir) Join(elems ...string) string {
	return filepath.Join(append([]string{w.Path}, elems...)...)
}

// Release removes the work directory with everything in it.
func (w *WorkDir) Release() {
	err := os.RemoveAll(w.Path)
	if err != nil {
		log.Warn().
			Err(err).
			Str("path", w.Path).
			Msg("Failed to remove work directory")

		return
	}

	log.Debug().Str("path", w.Path).Msg("Removed work directory")
}
