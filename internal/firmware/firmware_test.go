// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package firmware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microbeam/microbeam/internal/firmware"
	"github.com/microbeam/microbeam/internal/tools"
)

// cannedRunner replies with a fixed result to every invocation.
type cannedRunner struct {
	result tools.Result
	argv   []string
}

func (r *cannedRunner) Run(
	_ context.Context,
	_ string,
	argv ...string,
) (tools.Result, error) {
	r.argv = argv

	return r.result, nil
}

func (r *cannedRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

const fwupMetadata = `meta-product="microbeam"
meta-version="0.3.0"
meta-platform="rpi0"
meta-architecture=arm
`

func TestIntrospect(t *testing.T) {
	runner := &cannedRunner{result: tools.Result{Stdout: fwupMetadata}}

	metadata, err := firmware.Introspect(
		context.Background(), runner, "/tmp/app.fw",
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"fwup", "-m", "-i", "/tmp/app.fw"}, runner.argv)
	assert.Equal(t, "microbeam", metadata["meta-product"])
	assert.Equal(t, "0.3.0", metadata["meta-version"])
	assert.Equal(t, "arm", metadata["meta-architecture"])
}

func TestIntrospectToolFailure(t *testing.T) {
	runner := &cannedRunner{
		result: tools.Result{ExitCode: 1, Stderr: "not a fwup file"},
	}

	_, err := firmware.Introspect(context.Background(), runner, "/tmp/app.fw")
	require.ErrorIs(t, err, firmware.ErrIntrospectFailed)
	assert.Contains(t, err.Error(), "not a fwup file")
}

func TestValidate(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		err := firmware.Validate(map[string]string{
			"meta-product": "microbeam",
			"meta-version": "0.3.0",
		})
		require.NoError(t, err)
	})

	t.Run("missing version", func(t *testing.T) {
		err := firmware.Validate(map[string]string{
			"meta-product": "microbeam",
		})
		require.ErrorIs(t, err, firmware.ErrMetadataIncomplete)
		assert.Contains(t, err.Error(), "meta-version")
	})

	t.Run("empty", func(t *testing.T) {
		err := firmware.Validate(nil)
		require.ErrorIs(t, err, firmware.ErrMetadataIncomplete)
	})
}
