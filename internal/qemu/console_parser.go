// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"regexp"
	"strings"
)

var (
	panicRE = regexp.MustCompile(`^\[[0-9. ]+\] Kernel panic - not syncing: `)
	oomRE   = regexp.MustCompile(`^\[[0-9. ]+\] Out of memory: `)
)

// consoleParser scans guest console lines for the success marker and for
// fatal kernel messages.
//
// Kernel panic and OOM detection keeps going after a match so following
// lines still end up in the captured output and enhance the context
// information.
type consoleParser struct {
	marker string

	markerFound bool
	err         error
}

// Parse consumes one console line.
func (p *consoleParser) Parse(line string) {
	switch {
	case oomRE.MatchString(line):
		p.err = ErrGuestOom
	case panicRE.MatchString(line):
		p.err = ErrGuestPanic
	case !p.markerFound && strings.Contains(line, p.marker):
		p.markerFound = true
	}
}

// Done reports whether scanning can stop early. A fatal kernel message is
// terminal; the marker is what the boot check waits for.
func (p *consoleParser) Done() bool {
	return p.markerFound || p.err != nil
}

// BootSuccessful returns nil if the marker was seen and no fatal kernel
// message occurred.
func (p *consoleParser) BootSuccessful() error {
	if p.err != nil {
		return p.err
	}

	if !p.markerFound {
		return ErrMarkerNotFound
	}

	return nil
}
