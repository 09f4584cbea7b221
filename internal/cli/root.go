// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cli wires the build, validate, estimate and kconfig subcommands.
// All configuration keys can be set via config file, MICROBEAM_* environment
// variables or flags, with flags taking precedence.
package cli

import (
	"errors"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/microbeam/microbeam/internal/build"
	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/tools"
	"github.com/microbeam/microbeam/internal/validate"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "MICROBEAM"

func Execute() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:     "microbeam",
		Short:   "Build and validate minimal bootable Erlang/OTP images",
		Version: version,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			err := initConfig(configFile)
			if err != nil {
				return err
			}

			setupLogging(viper.GetString("log_level"))

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(
		&configFile, "config", "", "Config file path",
	)
	cmd.PersistentFlags().String("log-level", "info", "Log level")
	_ = viper.BindPFlag(
		"log_level", cmd.PersistentFlags().Lookup("log-level"),
	)

	cmd.AddCommand(newBuildCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newEstimateCommand())
	cmd.AddCommand(newKconfigCommand())

	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)

		err := viper.ReadInConfig()
		if err != nil {
			return err
		}

		return nil
	}

	viper.SetConfigName("microbeam")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/microbeam")

	// A missing default config file is fine; flags and env suffice.
	_ = viper.ReadInConfig()

	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// exitCodeForError maps the error taxonomy to stable exit codes:
// misconfiguration 2, missing tools 3, failed build stages 4, failed
// validation checks 5, anything else 1.
func exitCodeForError(err error) int {
	var (
		stageErr *build.StageError
		checkErr *validate.CheckError
	)

	switch {
	case errors.Is(err, config.ErrUnknownImageType),
		errors.Is(err, config.ErrInvalidTargetSize),
		errors.Is(err, config.ErrUnknownCompression),
		errors.Is(err, config.ErrAppPathNotFound):
		return 2
	case errors.Is(err, tools.ErrToolMissing):
		return 3
	case errors.As(err, &stageErr):
		return 4
	case errors.As(err, &checkErr):
		return 5
	default:
		return 1
	}
}
