// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package container

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/microbeam/microbeam/internal/tools"
)

// DockerBinary is the default container engine binary. Podman works as a
// drop-in replacement for the subcommands used here.
const DockerBinary = "docker"

// CLI is an [Engine] backed by the docker (or podman) command line client.
type CLI struct {
	Runner tools.Runner
	Binary string
}

// NewCLI creates a docker CLI engine using the given runner.
func NewCLI(runner tools.Runner) *CLI {
	return &CLI{
		Runner: runner,
		Binary: DockerBinary,
	}
}

func (c *CLI) run(
	ctx context.Context,
	argv ...string,
) (tools.Result, error) {
	full := append([]string{c.Binary}, argv...)

	result, err := c.Runner.Run(ctx, "", full...)
	if err != nil {
		return result, err
	}

	if !result.Successful() {
		return result, fmt.Errorf(
			"%w: %s %s: %s",
			ErrEngineFailed, c.Binary, argv[0], result.Detail(),
		)
	}

	return result, nil
}

// Build implements [Engine].
func (c *CLI) Build(
	ctx context.Context,
	dockerfile, contextDir, tag string,
) (string, error) {
	_, err := c.run(
		ctx, "build", "--file", dockerfile, "--tag", tag, contextDir,
	)
	if err != nil {
		return "", fmt.Errorf("build image: %w", err)
	}

	return tag, nil
}

// Save implements [Engine].
func (c *CLI) Save(ctx context.Context, image, outPath string) error {
	_, err := c.run(ctx, "save", "--output", outPath, image)
	if err != nil {
		return fmt.Errorf("save image %s: %w", image, err)
	}

	return nil
}

// Load implements [Engine].
func (c *CLI) Load(ctx context.Context, tarPath string) (string, error) {
	result, err := c.run(ctx, "load", "--input", tarPath)
	if err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}

	// docker load reports "Loaded image: <ref>" on the last line.
	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	last := lines[len(lines)-1]

	ref, found := strings.CutPrefix(last, "Loaded image: ")
	if !found {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedOutput, last)
	}

	return strings.TrimSpace(ref), nil
}

// Run implements [Engine].
func (c *CLI) Run(
	ctx context.Context,
	image string,
	argv []string,
) (string, int, error) {
	full := append([]string{c.Binary, "run", "--rm", image}, argv...)

	result, err := c.Runner.Run(ctx, "", full...)
	if err != nil {
		return "", 0, fmt.Errorf("run probe in %s: %w", image, err)
	}

	return result.Stdout + result.Stderr, result.ExitCode, nil
}

// CopyOut implements [Engine].
func (c *CLI) CopyOut(
	ctx context.Context,
	image, srcPath, destPath string,
) error {
	name := "microbeam-export-" + uuid.NewString()

	_, err := c.run(ctx, "create", "--name", name, image)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}

	// Cleanup must run even if ctx is already done.
	cleanupCtx := context.WithoutCancel(ctx)

	defer func() {
		_, rmErr := c.run(cleanupCtx, "rm", "--force", name)
		if rmErr != nil {
			log.Warn().
				Err(rmErr).
				Str("container", name).
				Msg("Failed to remove throwaway container")
		}
	}()

	_, err = c.run(ctx, "cp", name+":"+srcPath, destPath)
	if err != nil {
		return fmt.Errorf("copy %s: %w", srcPath, err)
	}

	return nil
}
