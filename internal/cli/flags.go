// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/microbeam/microbeam/internal/config"
)

// addConfigFlags registers the build configuration flags. Flag defaults
// mirror [config.Default] so the flag layer never zeroes a config value the
// user did not touch.
func addConfigFlags(cmd *cobra.Command) {
	defaults := config.Default()

	cmd.Flags().String(
		"type", defaults.Type.String(),
		"Image type: docker, custom, buildroot or firmware",
	)
	cmd.Flags().Int(
		"target-size", defaults.TargetSizeMB, "Target image size in MB",
	)
	cmd.Flags().String(
		"app", "", "Path to a compiled application release",
	)
	cmd.Flags().StringSlice(
		"app-dep", nil, "OTP applications the release depends on",
	)
	cmd.Flags().StringSlice(
		"package", nil, "Extra packages to install into the image",
	)
	cmd.Flags().Bool(
		"strip", defaults.StripModules, "Strip unneeded OTP components",
	)
	cmd.Flags().StringSlice(
		"keep", nil, "Retention flags for conditional components",
	)
	cmd.Flags().String(
		"compression", defaults.Compression.String(),
		"Compression: xz, gzip or none",
	)
	cmd.Flags().StringToString(
		"vm-option", nil, "Strategy specific options as key=value",
	)
}

// configFlagKeys maps viper config keys to the flag names they are fed by.
var configFlagKeys = map[string]string{
	"type":          "type",
	"target_size":   "target-size",
	"app_path":      "app",
	"app_deps":      "app-dep",
	"packages":      "package",
	"strip_modules": "strip",
	"keep":          "keep",
	"compression":   "compression",
	"vm_options":    "vm-option",
}

// loadConfig materializes the effective [config.Config] from config file,
// environment and the invoked command's flags.
//
// Flags are bound here, at run time, because every subcommand registers its
// own instances of the shared config flags and only the invoked command's
// values may win.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	for key, flag := range configFlagKeys {
		err := viper.BindPFlag(key, cmd.Flags().Lookup(flag))
		if err != nil {
			return config.Config{}, err
		}
	}

	return config.FromViper(viper.GetViper())
}
