// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package tools_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microbeam/microbeam/internal/tools"
)

func TestExecRunnerRun(t *testing.T) {
	runner := tools.ExecRunner{}

	t.Run("captures stdout", func(t *testing.T) {
		result, err := runner.Run(context.Background(), "", "sh", "-c", "echo hello")
		require.NoError(t, err)

		assert.True(t, result.Successful())
		assert.Equal(t, "hello\n", result.Stdout)
	})

	t.Run("non-zero exit is not an error", func(t *testing.T) {
		result, err := runner.Run(
			context.Background(), "", "sh", "-c", "echo oops >&2; exit 3",
		)
		require.NoError(t, err)

		assert.Equal(t, 3, result.ExitCode)
		assert.False(t, result.Successful())
		assert.Equal(t, "oops", result.Detail())
	})

	t.Run("runs in work dir", func(t *testing.T) {
		dir := t.TempDir()

		result, err := runner.Run(context.Background(), dir, "pwd")
		require.NoError(t, err)

		assert.Contains(t, result.Stdout, dir)
	})

	t.Run("empty argv", func(t *testing.T) {
		_, err := runner.Run(context.Background(), "")
		require.ErrorIs(t, err, tools.ErrEmptyArgv)
	})

	t.Run("context deadline terminates process", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := runner.Run(ctx, "", "sleep", "30")

		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestExecRunnerLookPath(t *testing.T) {
	runner := tools.ExecRunner{}

	_, err := runner.LookPath("sh")
	require.NoError(t, err)

	_, err = runner.LookPath("definitely-not-a-tool-2318")
	require.ErrorIs(t, err, tools.ErrToolMissing)
}

func TestCheck(t *testing.T) {
	runner := tools.ExecRunner{}

	require.NoError(t, tools.Check(runner, "sh"))

	err := tools.Check(runner, "sh", "no-such-tool-a", "no-such-tool-b")
	require.ErrorIs(t, err, tools.ErrToolMissing)
	assert.Contains(t, err.Error(), "no-such-tool-a, no-such-tool-b")
}
