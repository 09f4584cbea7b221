// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"errors"
	"fmt"
)

var (
	// ErrNoKernelImage is returned if the kernel build finished but the
	// expected image file is missing.
	ErrNoKernelImage = errors.New("kernel image not found after build")

	// ErrNoRootfsImage is returned if the rootfs build finished but the
	// expected archive file is missing.
	ErrNoRootfsImage = errors.New("rootfs image not found after build")

	// ErrNoFirmwareProject is returned if the firmware strategy is used
	// without a project directory configured.
	ErrNoFirmwareProject = errors.New("no firmware project configured")

	// ErrUnsafeBundlePath is returned if a bundle member would extract
	// outside the destination directory.
	ErrUnsafeBundlePath = errors.New("unsafe path in bundle")
)

// StageError identifies the assembly pipeline stage that failed, together
// with the underlying tool's captured output. Later stages are skipped and
// the work directory is discarded when a StageError occurs.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
