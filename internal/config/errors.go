// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import "errors"

var (
	// ErrUnknownImageType is returned for an image type outside the
	// supported set.
	ErrUnknownImageType = errors.New("unknown image type")

	// ErrInvalidTargetSize is returned for a non-positive target size.
	ErrInvalidTargetSize = errors.New("target size must be positive")

	// ErrUnknownCompression is returned for an unsupported compression
	// method.
	ErrUnknownCompression = errors.New("unknown compression method")

	// ErrAppPathNotFound is returned if the configured application path
	// does not exist.
	ErrAppPathNotFound = errors.New("app path does not exist")
)
