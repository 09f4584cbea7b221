// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validate checks built image artifacts. Checks run in a fixed
// order, existence, size, boot, functional, and stop at the first failure.
// A [Report] is always returned, even for failed runs, so callers can see
// how far an artifact got. Artifacts are never deleted by validation.
package validate

import "time"

// Report is the immutable result snapshot of one validation run. A partial
// report, with later checks still false, is a valid result: it means an
// earlier check failed and the rest were never attempted.
type Report struct {
	// Exists reports that the artifact file is present.
	Exists bool

	// SizeOK reports that the measured size is within the tolerated
	// margin above the configured target size.
	SizeOK bool

	// Bootable reports that the boot check of the artifact's backend
	// succeeded. For firmware artifacts this is a metadata check only,
	// marked as such in Metadata.
	Bootable bool

	// Functional reports that the runtime inside the artifact executed
	// the functional probe.
	Functional bool

	// MeasuredSizeMB is the artifact file size. Zero if the artifact
	// does not exist.
	MeasuredSizeMB float64

	// CheckedAt is the validation start time.
	CheckedAt time.Time

	// Metadata carries backend details, such as the console marker used
	// or a reduced-strength boot check annotation.
	Metadata map[string]string
}
