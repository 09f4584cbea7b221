// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package container

import "errors"

var (
	// ErrEngineFailed is returned if the container engine exits non-zero.
	ErrEngineFailed = errors.New("container engine command failed")

	// ErrUnexpectedOutput is returned if the engine output cannot be
	// parsed.
	ErrUnexpectedOutput = errors.New("unexpected container engine output")
)
