// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"errors"
	"fmt"
)

var (
	// ErrGuestPanic is returned if a kernel panic occurred in the guest.
	ErrGuestPanic = errors.New("guest kernel panicked")

	// ErrGuestOom is returned if the guest ran out of memory.
	ErrGuestOom = errors.New("guest ran out of memory")

	// ErrMarkerNotFound is returned if the emulator exited before the
	// console marker appeared.
	ErrMarkerNotFound = errors.New("marker not found in console output")

	// ErrBootTimeout is returned if the wall-clock timeout expired
	// before the console marker appeared. The emulator process has been
	// killed when this error is returned.
	ErrBootTimeout = errors.New("boot timed out")

	// ErrMissingField is returned for a [CommandSpec] missing a required
	// field.
	ErrMissingField = errors.New("required field missing")
)

// CommandError wraps a failed boot attempt together with the emulator's
// stderr output.
type CommandError struct {
	Err    error
	Stderr string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%v: %s", e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
