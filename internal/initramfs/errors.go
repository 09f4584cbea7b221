// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import "errors"

var (
	// ErrNotRegularFile is returned if the source is not a regular file.
	ErrNotRegularFile = errors.New("source is not a regular file")

	// ErrUnsupportedFileType is returned for file types that cannot be
	// archived, like device nodes.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrUnsupportedCompression is returned for compression methods the
	// archive writer does not implement.
	ErrUnsupportedCompression = errors.New("unsupported compression method")
)
