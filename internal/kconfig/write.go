// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package kconfig

import (
	"fmt"
	"io"
)

// WriteConfig writes the profile as a kernel build configuration fragment.
//
// The fragment uses the kernel's own .config syntax, so it can be merged
// onto a tinyconfig base with "make olddefconfig". Disabled options use the
// kernel's "is not set" comment form, which olddefconfig treats as an
// explicit "n".
func (p Profile) WriteConfig(w io.Writer) error {
	_, err := fmt.Fprintln(w, "# microbeam kernel configuration fragment")
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, option := range p.Enabled() {
		_, err := fmt.Fprintf(w, "CONFIG_%s=y\n", option)
		if err != nil {
			return fmt.Errorf("write option %s: %w", option, err)
		}
	}

	for _, option := range p.Disabled() {
		_, err := fmt.Fprintf(w, "# CONFIG_%s is not set\n", option)
		if err != nil {
			return fmt.Errorf("write option %s: %w", option, err)
		}
	}

	return nil
}
