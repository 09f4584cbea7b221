// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// waitDelay bounds how long Wait blocks after the process was killed.
const waitDelay = 10 * time.Second

// Command is a single QEMU boot command that can be run.
type Command struct {
	spec CommandSpec
	args []string
}

// NewCommand creates a runnable [Command] from the given spec, applying
// host defaults and validating required fields.
func NewCommand(spec CommandSpec) (*Command, error) {
	spec.AddDefaults()

	err := spec.Validate()
	if err != nil {
		return nil, err
	}

	return &Command{
		spec: spec,
		args: spec.arguments(),
	}, nil
}

// String returns the command line as a printable string.
func (c *Command) String() string {
	return c.spec.Executable + " " + strings.Join(c.args, " ")
}

// Run boots the guest and blocks until the console marker is seen, a fatal
// guest error is detected, the emulator exits, or ctx is done.
//
// The context deadline is the hard wall-clock timeout for the boot check.
// On expiry the emulator process group is killed and [ErrBootTimeout] is
// returned; no emulator process remains running after Run returns. The
// captured console output is always returned for inspection.
func (c *Command) Run(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, c.spec.Executable, c.args...) //nolint:gosec
	// Own process group, so killing reaches forked helper processes too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return c.terminate(cmd)
	}
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}

	err = cmd.Start()
	if err != nil {
		return "", fmt.Errorf("start %s: %w", c.spec.Executable, err)
	}

	var output strings.Builder

	parser := &consoleParser{marker: c.spec.Marker}

	var eg errgroup.Group

	eg.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			output.WriteString(line)
			output.WriteByte('\n')

			parser.Parse(line)

			// A booted (or fatally wedged) guest does not exit on
			// its own, so stop the emulator once the verdict is
			// in.
			if parser.Done() {
				_ = c.terminate(cmd)
			}
		}

		return scanner.Err()
	})

	_ = eg.Wait()
	waitErr := cmd.Wait()

	consoleOutput := output.String()

	if ctxErr := ctx.Err(); ctxErr != nil && !parser.Done() {
		return consoleOutput, fmt.Errorf(
			"%w: %w", ErrBootTimeout, ctxErr,
		)
	}

	err = parser.BootSuccessful()
	if err != nil {
		return consoleOutput, &CommandError{
			Err:    err,
			Stderr: stderr.String(),
		}
	}

	// The emulator was killed deliberately after the marker was found,
	// so its exit status carries no signal at this point.
	_ = waitErr

	return consoleOutput, nil
}

// terminate kills the whole emulator process group.
func (c *Command) terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	if err != nil && err != unix.ESRCH {
		return fmt.Errorf("kill process group: %w", err)
	}

	return nil
}
