// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"debug/elf"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// imageMachine is the machine type images boot on. The kernel is built for
// x86_64, so ELF payloads for anything else cannot run in the guest.
const imageMachine = elf.EM_X86_64

// warnForeignELF walks the application payload and warns about ELF
// executables built for a foreign architecture. Precompiled NIFs and port
// drivers in a release are a common way to end up with an image that boots
// but cannot start its application.
//
// Non-ELF files are ignored; the check never fails the build.
func warnForeignELF(root string) {
	walkFn := func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.Type().IsRegular() {
			return err
		}

		elfFile, err := elf.Open(path)
		if err != nil {
			var formatErr *elf.FormatError
			if errors.As(err, &formatErr) {
				return nil
			}

			log.Debug().Err(err).Str("path", path).Msg("Skipping file")

			return nil
		}

		machine := elfFile.Machine
		_ = elfFile.Close()

		if machine != imageMachine {
			log.Warn().
				Str("path", path).
				Str("machine", machine.String()).
				Msg("Application payload contains foreign architecture binary")
		}

		return nil
	}

	err := filepath.WalkDir(root, walkFn)
	if err != nil {
		log.Debug().Err(err).Msg("Payload architecture scan incomplete")
	}
}
