// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/microbeam/microbeam/internal/kconfig"
)

func newKconfigCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "kconfig",
		Short: "Print the generated kernel config fragment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			profile := kconfig.Generate(cfg.VMOptions)

			if outPath == "" {
				return profile.WriteConfig(cmd.OutOrStdout())
			}

			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			defer file.Close()

			err = profile.WriteConfig(file)
			if err != nil {
				return err
			}

			return file.Close()
		},
	}

	addConfigFlags(cmd)
	cmd.Flags().StringVar(
		&outPath, "output", "",
		"Write the fragment to a file instead of stdout",
	)

	return cmd
}
