// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tools invokes external build tools as blocking subprocesses.
//
// Commands are always built from argument vectors, never from interpolated
// shell strings, and every invocation carries the caller's context so
// long-running compilations can be cancelled.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// waitDelay bounds the grace period between context cancellation and the
// process being killed.
const waitDelay = 10 * time.Second

// Result captures the outcome of a tool invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Successful reports whether the tool exited with code 0.
func (r Result) Successful() bool {
	return r.ExitCode == 0
}

// Detail returns the tail of the captured output, suitable for error
// reporting. Stderr is preferred since build tools report failures there.
func (r Result) Detail() string {
	detail := strings.TrimSpace(r.Stderr)
	if detail == "" {
		detail = strings.TrimSpace(r.Stdout)
	}

	const maxDetail = 2048
	if len(detail) > maxDetail {
		detail = "..." + detail[len(detail)-maxDetail:]
	}

	return detail
}

// Runner runs external tools. It exists as an interface so build pipelines
// can be tested without the actual toolchains installed.
type Runner interface {
	// Run executes the given argument vector in workDir and blocks until
	// the process exits or ctx is done. A non-zero exit code is not an
	// error; it is reported via [Result.ExitCode].
	Run(ctx context.Context, workDir string, argv ...string) (Result, error)

	// LookPath returns the path of the named tool or an error wrapping
	// [ErrToolMissing] if it is not installed.
	LookPath(name string) (string, error)
}

// ExecRunner is the [Runner] implementation backed by [os/exec].
type ExecRunner struct{}

// Run implements [Runner].
func (ExecRunner) Run(
	ctx context.Context,
	workDir string,
	argv ...string,
) (Result, error) {
	if len(argv) == 0 {
		return Result{}, ErrEmptyArgv
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	log.Debug().
		Str("dir", workDir).
		Strs("argv", argv).
		Msg("Running tool")

	start := time.Now()
	err := cmd.Run()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	// A process killed due to context cancellation surfaces as a plain
	// exit error, so the context takes precedence.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("run %s: %w", argv[0], ctxErr)
	}

	var exitErr *exec.ExitError

	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, fmt.Errorf("run %s: %w", argv[0], err)
	}

	log.Debug().
		Str("tool", argv[0]).
		Int("exit_code", result.ExitCode).
		Dur("duration", time.Since(start)).
		Msg("Tool finished")

	return result, nil
}

// LookPath implements [Runner].
func (ExecRunner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrToolMissing, name)
	}

	return path, nil
}

// Check verifies that all named tools are installed. It is run before any
// work directory is created, so a missing dependency fails fast without
// leaving partial state behind.
func Check(runner Runner, names ...string) error {
	var missing []string

	for _, name := range names {
		_, err := runner.LookPath(name)
		if err != nil {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf(
			"%w: %s",
			ErrToolMissing,
			strings.Join(missing, ", "),
		)
	}

	return nil
}
