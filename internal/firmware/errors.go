// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package firmware

import "errors"

var (
	// ErrIntrospectFailed is returned if the firmware tool exits
	// non-zero.
	ErrIntrospectFailed = errors.New("firmware introspection failed")

	// ErrMetadataIncomplete is returned if required metadata keys are
	// missing.
	ErrMetadataIncomplete = errors.New("firmware metadata incomplete")
)
