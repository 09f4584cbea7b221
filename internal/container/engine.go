// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package container wraps the external container engine behind a small
// interface: build an image, export it, run a probe command, copy files out
// of a throwaway container.
package container

import "context"

// Engine is the container engine interface boundary. The engine itself is
// an external collaborator; this package only defines the input/output
// contract and a CLI-backed implementation.
type Engine interface {
	// Build builds the image described by dockerfile with the given
	// context directory and returns the image reference.
	Build(ctx context.Context, dockerfile, contextDir, tag string) (string, error)

	// Save exports the image including all layers as a tarball at
	// outPath.
	Save(ctx context.Context, image, outPath string) error

	// Load imports an image tarball previously written by Save and
	// returns the image reference.
	Load(ctx context.Context, tarPath string) (string, error)

	// Run executes argv in a fresh container of the image and returns
	// the combined output and the command's exit code.
	Run(ctx context.Context, image string, argv []string) (string, int, error)

	// CopyOut copies srcPath from a throwaway container of the image
	// into destPath on the host. The container is removed on every exit
	// path.
	CopyOut(ctx context.Context, image, srcPath, destPath string) error
}
