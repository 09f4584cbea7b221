// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package build assembles bootable runtime images. The four build
// strategies form a closed set behind the [Strategy] interface; a shared
// [Pipeline] handles dependency checks, work directory lifecycle and
// packaging, so each strategy supplies only its assembly step.
package build

import (
	"time"

	"github.com/microbeam/microbeam/internal/config"
)

// BootMarker is printed by the generated init script once the guest has
// mounted its filesystems. Its appearance in console output is the agreed
// boot success signal.
const BootMarker = "microbeam boot complete"

// Artifact is the result of one successful build. It is immutable after
// creation; cleanup of the underlying file is left to the caller.
type Artifact struct {
	// ImagePath is the final bundle location.
	ImagePath string

	// Type is the strategy that produced the artifact.
	Type config.ImageType

	// SizeMB is the measured bundle size.
	SizeMB float64

	// Metadata carries informational key/value pairs, such as the
	// estimated size and the bundle member names.
	Metadata map[string]string

	// CreatedAt is the build completion time.
	CreatedAt time.Time
}

// Output is what a strategy's assembly step hands to the packager: bundle
// member names mapped to the produced files in the work directory.
type Output struct {
	Files    map[string]string
	Metadata map[string]string
}
