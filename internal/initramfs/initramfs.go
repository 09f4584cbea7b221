// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"fmt"
	"os"

	"github.com/microbeam/microbeam/internal/config"
)

// Create archives the staging root at outPath as a compressed CPIO archive.
//
// It writes directly to outPath, so callers wanting atomic artifact
// placement should point outPath into a work directory and move the file
// once the whole build succeeded. On error the partial file is removed.
func Create(outPath, stagingRoot string, method config.Compression) error {
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer file.Close()

	err = writeArchive(file, stagingRoot, method)
	if err != nil {
		_ = os.Remove(outPath)
		return err
	}

	return nil
}

func writeArchive(
	file *os.File,
	stagingRoot string,
	method config.Compression,
) error {
	compressor, err := NewCompressor(file, method)
	if err != nil {
		return err
	}

	writer := NewCPIOWriter(compressor)

	err = WriteDir(stagingRoot, writer)
	if err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	// Close order matters: the CPIO trailer must be written before the
	// compressor flushes its final block.
	err = writer.Close()
	if err != nil {
		return err
	}

	err = compressor.Close()
	if err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	return nil
}
