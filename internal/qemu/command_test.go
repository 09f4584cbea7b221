// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microbeam/microbeam/internal/qemu"
)

func validSpec() qemu.CommandSpec {
	return qemu.CommandSpec{
		Kernel:    "/boot/bzImage",
		Initramfs: "/boot/initramfs.img",
		Marker:    "microbeam",
	}
}

func TestNewCommandValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*qemu.CommandSpec)
	}{
		{
			name: "missing kernel",
			mutate: func(s *qemu.CommandSpec) {
				s.Kernel = ""
			},
		},
		{
			name: "missing initramfs",
			mutate: func(s *qemu.CommandSpec) {
				s.Initramfs = ""
			},
		},
		{
			name: "missing marker",
			mutate: func(s *qemu.CommandSpec) {
				s.Marker = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			_, err := qemu.NewCommand(spec)
			require.ErrorIs(t, err, qemu.ErrMissingField)
		})
	}
}

func TestCommandArguments(t *testing.T) {
	spec := validSpec()
	spec.NoKVM = true
	spec.InitArgs = []string{"-eval", "ok"}

	cmd, err := qemu.NewCommand(spec)
	require.NoError(t, err)

	s := cmd.String()

	assert.Contains(t, s, "-kernel /boot/bzImage")
	assert.Contains(t, s, "-initrd /boot/initramfs.img")
	assert.Contains(t, s, "-no-reboot")
	assert.Contains(t, s, "-nodefaults")
	assert.NotContains(t, s, "-enable-kvm")
	assert.Contains(t, s, "console=ttyS0")
	assert.Contains(t, s, "panic=-1")
	assert.Contains(t, s, "-- -eval ok")
}

