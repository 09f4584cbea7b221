// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package validate

import (
	"context"
	"fmt"
	"maps"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/microbeam/microbeam/internal/build"
	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/container"
	"github.com/microbeam/microbeam/internal/tools"
)

const (
	// defaultSizeTolerance is the factor the measured size may exceed
	// the configured target by before the size check fails. The target
	// is aspirational, not a hard limit.
	defaultSizeTolerance = 1.5

	// defaultBootTimeout is the hard wall-clock limit for a boot check.
	defaultBootTimeout = 60 * time.Second

	// defaultRuntimePattern is the interactive shell banner printed by
	// a runtime booted without an application.
	defaultRuntimePattern = "Eshell"
)

// Engine validates built artifacts. The zero value is not usable; fill the
// required fields and leave the tuning fields zero for defaults.
type Engine struct {
	Config     config.Config
	Runner     tools.Runner
	Containers container.Engine

	// SizeTolerance overrides [defaultSizeTolerance] when positive.
	SizeTolerance float64

	// BootTimeout overrides [defaultBootTimeout] when positive.
	BootTimeout time.Duration

	// RuntimePattern overrides [defaultRuntimePattern] when set. Builds
	// with an application installed should set it to output the
	// application is known to print.
	RuntimePattern string

	// WorkBaseDir is where extraction scratch directories are created.
	// Empty means the system temp directory.
	WorkBaseDir string

	// Backend overrides the artifact type based backend selection. Used
	// in tests; leave nil otherwise.
	Backend Backend
}

// Validate runs the check sequence against the artifact and returns the
// report together with the first check failure, if any.
//
// The report is always returned. Checks run strictly in order and stop at
// the first failure, so a false Bootable with a true Exists means the boot
// check itself failed, while all-false means the artifact is missing.
func (e *Engine) Validate(
	ctx context.Context,
	artifact *build.Artifact,
) (*Report, error) {
	report := &Report{
		CheckedAt: time.Now(),
		Metadata:  make(map[string]string),
	}

	log.Info().
		Str("artifact", artifact.ImagePath).
		Str("type", artifact.Type.String()).
		Msg("Validating artifact")

	info, err := os.Stat(artifact.ImagePath)
	if err != nil {
		return report, &CheckError{
			Check: CheckExists, Reason: "artifact missing", Err: err,
		}
	}

	report.Exists = true
	report.MeasuredSizeMB = float64(info.Size()) / (1 << 20)

	limitMB := float64(e.Config.TargetSizeMB) * e.sizeTolerance()
	if report.MeasuredSizeMB > limitMB {
		return report, &CheckError{
			Check: CheckSize,
			Reason: fmt.Sprintf(
				"measured %.1f MB exceeds limit %.1f MB",
				report.MeasuredSizeMB, limitMB,
			),
		}
	}

	report.SizeOK = true

	backend := e.backend(artifact.Type)

	boot, err := backend.Boot(ctx, artifact)
	if boot != nil {
		maps.Copy(report.Metadata, boot.Metadata)
	}

	if err != nil {
		return report, err
	}

	report.Bootable = true

	if !boot.ProbeSupported {
		report.Metadata["functional_check"] = "skipped"

		log.Info().
			Str("artifact", artifact.ImagePath).
			Msg("Functional check not supported for artifact type")

		return report, nil
	}

	err = backend.Probe(ctx, boot)
	if err != nil {
		return report, err
	}

	report.Functional = true

	log.Info().
		Str("artifact", artifact.ImagePath).
		Float64("size_mb", report.MeasuredSizeMB).
		Msg("Artifact validated")

	return report, nil
}

func (e *Engine) backend(imageType config.ImageType) Backend {
	if e.Backend != nil {
		return e.Backend
	}

	switch imageType {
	case config.TypeDocker:
		return &dockerBackend{
			engine:      e.Containers,
			compression: e.Config.Compression,
			workBase:    e.WorkBaseDir,
		}
	case config.TypeFirmware:
		return &firmwareBackend{
			runner:      e.Runner,
			compression: e.Config.Compression,
			workBase:    e.WorkBaseDir,
		}
	default:
		return &qemuBackend{
			compression:    e.Config.Compression,
			workBase:       e.WorkBaseDir,
			timeout:        e.bootTimeout(),
			runtimePattern: e.runtimePattern(),
		}
	}
}

func (e *Engine) sizeTolerance() float64 {
	if e.SizeTolerance > 0 {
		return e.SizeTolerance
	}

	return defaultSizeTolerance
}

func (e *Engine) bootTimeout() time.Duration {
	if e.BootTimeout > 0 {
		return e.BootTimeout
	}

	return defaultBootTimeout
}

func (e *Engine) runtimePattern() string {
	if e.RuntimePattern != "" {
		return e.RuntimePattern
	}

	return defaultRuntimePattern
}
