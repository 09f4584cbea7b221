// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package initramfs serializes a staging root directory into a compressed
// CPIO archive the kernel can unpack as its initial root filesystem.
package initramfs

import "io/fs"

// Writer defines the initramfs archive writer interface.
type Writer interface {
	WriteRegular(path string, source fs.File, mode fs.FileMode) error
	WriteDirectory(path string) error
	WriteLink(path, target string) error
}
