// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"context"
	"os"
)

// FakeEngine is an [Engine] for tests. Probe output and exported file
// content are configurable, and all invocations are recorded.
type FakeEngine struct {
	ProbeOutput   string
	ProbeExitCode int
	CopyOutData   []byte
	// CopyOutFn overrides the default CopyOut behavior, e.g. to create
	// a whole directory tree at destPath.
	CopyOutFn func(srcPath, destPath string) error
	BuildErr  error

	BuiltTags    []string
	SavedPaths   []string
	LoadedPaths  []string
	RunArgvs     [][]string
	CopiedPaths  []string
	RemovedClean bool
}

var _ Engine = (*FakeEngine)(nil)

// Build implements [Engine].
func (f *FakeEngine) Build(
	_ context.Context,
	_, _, tag string,
) (string, error) {
	if f.BuildErr != nil {
		return "", f.BuildErr
	}

	f.BuiltTags = append(f.BuiltTags, tag)

	return tag, nil
}

// Save implements [Engine]. It writes a placeholder tarball so callers can
// check for the file's existence.
func (f *FakeEngine) Save(_ context.Context, _, outPath string) error {
	f.SavedPaths = append(f.SavedPaths, outPath)

	return os.WriteFile(outPath, []byte("layers"), 0o644)
}

// Load implements [Engine].
func (f *FakeEngine) Load(_ context.Context, tarPath string) (string, error) {
	f.LoadedPaths = append(f.LoadedPaths, tarPath)

	return "loaded:latest", nil
}

// Run implements [Engine].
func (f *FakeEngine) Run(
	_ context.Context,
	_ string,
	argv []string,
) (string, int, error) {
	f.RunArgvs = append(f.RunArgvs, argv)

	return f.ProbeOutput, f.ProbeExitCode, nil
}

// CopyOut implements [Engine].
func (f *FakeEngine) CopyOut(
	_ context.Context,
	_, srcPath, destPath string,
) error {
	f.CopiedPaths = append(f.CopiedPaths, srcPath)
	f.RemovedClean = true

	if f.CopyOutFn != nil {
		return f.CopyOutFn(srcPath, destPath)
	}

	data := f.CopyOutData
	if data == nil {
		data = []byte("export")
	}

	return os.WriteFile(destPath, data, 0o644)
}
