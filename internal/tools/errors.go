// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package tools

import "errors"

var (
	// ErrToolMissing is returned if a required external tool is not
	// installed.
	ErrToolMissing = errors.New("required tool not found")

	// ErrEmptyArgv is returned for an invocation without a command.
	ErrEmptyArgv = errors.New("empty argument vector")
)
