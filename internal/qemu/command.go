// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu boots kernel+initramfs artifacts under QEMU and verifies the
// guest console output.
//
// A boot check is considered successful once an agreed marker string
// appears in the console output. The emulator runs under a hard wall-clock
// timeout and is forcibly terminated when it is exceeded, so a wedged guest
// can never leave an orphaned emulator process behind.
package qemu

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultMemoryMB = 256
	defaultSMP      = 1
)

// CommandSpec defines the parameters for a [Command].
type CommandSpec struct {
	// Path to the qemu-system binary. Defaults to the host architecture
	// binary.
	Executable string

	// Path to the kernel to boot. The kernel needs virtio console
	// support compiled in.
	Kernel string

	// Path to the initramfs to boot with.
	Initramfs string

	// QEMU machine type to use. Depends on the QEMU binary used.
	Machine string

	// CPU type to use. Depends on machine type and QEMU binary used.
	CPU string

	// Number of CPUs for the guest.
	SMP uint64

	// Memory for the machine in MB.
	Memory uint64

	// Disable KVM support.
	NoKVM bool

	// Marker is the substring whose appearance in console output makes
	// the boot check succeed.
	Marker string

	// InitArgs are passed to the init process via the kernel cmdline.
	InitArgs []string

	// Increase guest kernel logging.
	Verbose bool
}

// AddDefaults fills unset fields with host defaults.
func (s *CommandSpec) AddDefaults() {
	if s.Executable == "" {
		s.Executable = "qemu-system-x86_64"
	}

	if s.Machine == "" {
		s.Machine = "q35"
	}

	if s.CPU == "" {
		s.CPU = "max"
	}

	if s.Memory == 0 {
		s.Memory = defaultMemoryMB
	}

	if s.SMP == 0 {
		s.SMP = defaultSMP
	}

	if !s.NoKVM {
		s.NoKVM = !KVMAvailable()
	}
}

// Validate checks that all required fields are set.
func (s *CommandSpec) Validate() error {
	if s.Kernel == "" {
		return fmt.Errorf("%w: kernel path", ErrMissingField)
	}

	if s.Initramfs == "" {
		return fmt.Errorf("%w: initramfs path", ErrMissingField)
	}

	if s.Marker == "" {
		return fmt.Errorf("%w: console marker", ErrMissingField)
	}

	return nil
}

// arguments compiles the argument vector for the QEMU command. Arguments
// are always passed as a vector, never through a shell.
func (s *CommandSpec) arguments() []string {
	args := []string{
		"-kernel", s.Kernel,
		"-initrd", s.Initramfs,
		"-machine", s.Machine,
		"-cpu", s.CPU,
		"-smp", strconv.FormatUint(s.SMP, 10),
		"-m", strconv.FormatUint(s.Memory, 10),
		// Console on stdio, everything else off.
		"-serial", "stdio",
		"-display", "none",
		"-monitor", "none",
		"-no-reboot",
		"-nodefaults",
		"-no-user-config",
	}

	if !s.NoKVM {
		args = append(args, "-enable-kvm")
	}

	args = append(args, "-append", strings.Join(s.kernelCmdlineArgs(), " "))

	return args
}

// kernelCmdlineArgs returns the kernel cmdline arguments.
func (s *CommandSpec) kernelCmdlineArgs() []string {
	cmdline := []string{
		"console=ttyS0",
		"panic=-1",
	}

	if s.Verbose {
		cmdline = append(cmdline, "debug")
	} else {
		cmdline = append(cmdline, "quiet")
	}

	if len(s.InitArgs) > 0 {
		cmdline = append(cmdline, "--")
		cmdline = append(cmdline, s.InitArgs...)
	}

	return cmdline
}
