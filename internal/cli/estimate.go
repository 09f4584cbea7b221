// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microbeam/microbeam/internal/estimate"
	"github.com/microbeam/microbeam/internal/strip"
)

func newEstimateCommand() *cobra.Command {
	var showComponents bool

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the image size for a configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var decision strip.Decision
			if cfg.StripModules {
				decision = strip.Decide(cfg.Keep, cfg.AppDeps)
			}

			out := cmd.OutOrStdout()

			fmt.Fprintf(
				out, "estimated size: %s (target %d MB)\n",
				estimate.Size(cfg, decision), cfg.TargetSizeMB,
			)

			if !showComponents {
				return nil
			}

			for _, component := range decision.Retained {
				fmt.Fprintf(out, "retain %s\n", component)
			}

			for _, component := range decision.Removed {
				fmt.Fprintf(out, "remove %s\n", component)
			}

			return nil
		},
	}

	addConfigFlags(cmd)
	cmd.Flags().BoolVar(
		&showComponents, "components", false,
		"List the component retention decision",
	)

	return cmd
}
