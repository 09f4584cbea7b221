// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microbeam/microbeam/internal/build"
	"github.com/microbeam/microbeam/internal/container"
	"github.com/microbeam/microbeam/internal/tools"
)

func newBuildCommand() *cobra.Command {
	var (
		outDir  string
		workDir string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a bootable image bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			runner := tools.ExecRunner{}
			pipeline := &build.Pipeline{
				Config:      cfg,
				Runner:      runner,
				Engine:      container.NewCLI(runner),
				OutDir:      outDir,
				WorkBaseDir: workDir,
			}

			artifact, err := pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"built %s (%.1f MB, estimated %s)\n",
				artifact.ImagePath,
				artifact.SizeMB,
				artifact.Metadata["estimated_size"],
			)

			return nil
		},
	}

	addConfigFlags(cmd)
	cmd.Flags().StringVar(&outDir, "output", "out", "Output directory")
	cmd.Flags().StringVar(
		&workDir, "work-dir", "",
		"Base directory for temporary build trees",
	)

	return cmd
}
