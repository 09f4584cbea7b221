// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/microbeam/microbeam/internal/build"
	"github.com/microbeam/microbeam/internal/container"
	"github.com/microbeam/microbeam/internal/tools"
	"github.com/microbeam/microbeam/internal/validate"
)

func newValidateCommand() *cobra.Command {
	var (
		bootTimeout    time.Duration
		sizeTolerance  float64
		runtimePattern string
		workDir        string
	)

	cmd := &cobra.Command{
		Use:   "validate <bundle>",
		Short: "Validate a built image bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			runner := tools.ExecRunner{}
			engine := &validate.Engine{
				Config:         cfg,
				Runner:         runner,
				Containers:     container.NewCLI(runner),
				BootTimeout:    bootTimeout,
				SizeTolerance:  sizeTolerance,
				RuntimePattern: runtimePattern,
				WorkBaseDir:    workDir,
			}

			artifact := &build.Artifact{
				ImagePath: args[0],
				Type:      cfg.Type,
			}

			report, err := engine.Validate(cmd.Context(), artifact)
			printReport(cmd, report)

			return err
		},
	}

	addConfigFlags(cmd)
	cmd.Flags().DurationVar(
		&bootTimeout, "boot-timeout", 0,
		"Hard wall-clock limit for the boot check",
	)
	cmd.Flags().Float64Var(
		&sizeTolerance, "size-tolerance", 0,
		"Allowed factor above the target size",
	)
	cmd.Flags().StringVar(
		&runtimePattern, "runtime-pattern", "",
		"Console output expected from the booted runtime",
	)
	cmd.Flags().StringVar(
		&workDir, "work-dir", "",
		"Base directory for extraction scratch space",
	)

	return cmd
}

func printReport(cmd *cobra.Command, report *validate.Report) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "exists:     %t\n", report.Exists)
	fmt.Fprintf(out, "size ok:    %t (%.1f MB)\n",
		report.SizeOK, report.MeasuredSizeMB)
	fmt.Fprintf(out, "bootable:   %t\n", report.Bootable)
	fmt.Fprintf(out, "functional: %t\n", report.Functional)

	if note := report.Metadata["boot_check"]; note != "" {
		fmt.Fprintf(out, "boot check: %s\n", note)
	}
}
