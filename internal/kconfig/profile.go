// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package kconfig derives a minimal kernel feature profile for VM targets.
//
// The profile starts from a tinyconfig equivalent baseline and adds only
// what is needed to boot an initramfs on a paravirtualized machine. All
// physical hardware support is explicitly disabled.
package kconfig

import (
	"maps"
	"slices"
)

// bootEssential lists options the kernel cannot boot our initramfs without:
// console, ELF loader, initramfs unpacking and basic pseudo filesystems.
var bootEssential = []string{
	"64BIT",
	"BINFMT_ELF",
	"BINFMT_SCRIPT",
	"BLK_DEV_INITRD",
	"DEVTMPFS",
	"DEVTMPFS_MOUNT",
	"EPOLL",
	"FUTEX",
	"MULTIUSER",
	"PRINTK",
	"PROC_FS",
	"RD_GZIP",
	"RD_XZ",
	"SYSFS",
	"TMPFS",
	"TTY",
	"UNIX98_PTYS",
}

// virtEssential lists paravirtual device support: block, network, console
// and entropy, plus the transports they ride on.
var virtEssential = []string{
	"BLK_DEV",
	"HW_RANDOM",
	"HW_RANDOM_VIRTIO",
	"INET",
	"NET",
	"NETDEVICES",
	"NET_CORE",
	"PCI",
	"SERIAL_8250",
	"SERIAL_8250_CONSOLE",
	"VIRTIO",
	"VIRTIO_BLK",
	"VIRTIO_CONSOLE",
	"VIRTIO_MMIO",
	"VIRTIO_NET",
	"VIRTIO_PCI",
}

// hardwareDisable lists physical-hardware-only subsystems that never appear
// in a VM image.
var hardwareDisable = []string{
	"BT",
	"DRM",
	"FB",
	"GPIOLIB",
	"HID",
	"I2C",
	"INPUT_KEYBOARD",
	"INPUT_MOUSE",
	"SND",
	"SOUND",
	"SPI",
	"USB",
	"USB_SUPPORT",
	"WIRELESS",
	"WLAN",
}

// vmOptionDrops maps VM option keys to the enable options they drop.
// Boot-essential options are never dropped.
var vmOptionDrops = map[string][]string{
	"no-net":     {"INET", "NET", "NETDEVICES", "NET_CORE", "VIRTIO_NET"},
	"no-block":   {"BLK_DEV", "VIRTIO_BLK"},
	"no-entropy": {"HW_RANDOM", "HW_RANDOM_VIRTIO"},
}

// Profile is a minimal kernel feature set. Enable and Disable are disjoint
// and the boot-essential set is always part of Enable.
type Profile struct {
	enable  map[string]bool
	disable map[string]bool
}

// Generate derives the kernel profile for the given VM options. Known
// option keys (e.g. "no-net") drop the matching hardware feature from the
// enable set; unknown keys are ignored.
func Generate(vmOptions map[string]string) Profile {
	profile := Profile{
		enable:  make(map[string]bool),
		disable: make(map[string]bool),
	}

	for _, option := range bootEssential {
		profile.enable[option] = true
	}

	for _, option := range virtEssential {
		profile.enable[option] = true
	}

	for key := range vmOptions {
		for _, option := range vmOptionDrops[key] {
			if slices.Contains(bootEssential, option) {
				continue
			}

			delete(profile.enable, option)
		}
	}

	for _, option := range hardwareDisable {
		delete(profile.enable, option)
		profile.disable[option] = true
	}

	return profile
}

// Enabled returns the sorted list of enabled options.
func (p Profile) Enabled() []string {
	return slices.Sorted(maps.Keys(p.enable))
}

// Disabled returns the sorted list of explicitly disabled options.
func (p Profile) Disabled() []string {
	return slices.Sorted(maps.Keys(p.disable))
}

// Enables reports whether the profile enables the given option.
func (p Profile) Enables(option string) bool {
	return p.enable[option]
}

// SizeHint returns a qualitative estimate of the resulting kernel image
// size. The actual size depends on the compiler and kernel version, so this
// is not a guarantee.
func (p Profile) SizeHint() string {
	return "1.5-2MB"
}
