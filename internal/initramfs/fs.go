// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteDir walks the staging root and writes every entry into the archive
// writer. Symlinks are preserved, file modes are carried over so the init
// script stays executable in the guest.
func WriteDir(root string, writer Writer) error {
	walkFn := func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}

		if relPath == "." {
			return nil
		}

		switch {
		case entry.IsDir():
			return writer.WriteDirectory(relPath)
		case entry.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}

			return writer.WriteLink(relPath, target)
		case entry.Type().IsRegular():
			return writeRegular(writer, relPath, path)
		default:
			// Device nodes and sockets cannot occur in a staging
			// root we built ourselves.
			return fmt.Errorf("%w: %s", ErrUnsupportedFileType, relPath)
		}
	}

	err := filepath.WalkDir(root, walkFn)
	if err != nil {
		return fmt.Errorf("walk staging root: %w", err)
	}

	return nil
}

func writeRegular(writer Writer, relPath, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return writer.WriteRegular(relPath, file, 0)
}
