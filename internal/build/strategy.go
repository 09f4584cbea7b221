// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/container"
	"github.com/microbeam/microbeam/internal/estimate"
	"github.com/microbeam/microbeam/internal/strip"
	"github.com/microbeam/microbeam/internal/tools"
)

// Env carries the shared inputs of an assembly run.
type Env struct {
	Config   config.Config
	Decision strip.Decision
	Work     *WorkDir
	Runner   tools.Runner
	Engine   container.Engine
}

// Strategy is one of the closed set of build strategies. Implementations
// supply only the assembly step; dependency checking, work directory
// lifecycle and packaging are handled by [Pipeline].
type Strategy interface {
	// Name returns the strategy identifier, equal to its
	// [config.ImageType].
	Name() string

	// Dependencies lists the external tools the strategy invokes. They
	// are checked before any work directory is created.
	Dependencies() []string

	// Assemble builds the image files in the work directory.
	Assemble(ctx context.Context, env *Env) (*Output, error)
}

// NewStrategy returns the strategy for the configured image type.
func NewStrategy(cfg config.Config) (Strategy, error) {
	switch cfg.Type {
	case config.TypeDocker:
		return &dockerStrategy{}, nil
	case config.TypeCustom:
		return &customStrategy{}, nil
	case config.TypeBuildroot:
		return &buildrootStrategy{}, nil
	case config.TypeFirmware:
		return &firmwareStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownImageType, cfg.Type)
	}
}

// Pipeline runs a full build: config validation, pre-flight dependency
// check, assembly and packaging. It is synchronous; external tool
// invocations block with the caller's context as their timeout.
type Pipeline struct {
	Config config.Config
	Runner tools.Runner
	Engine container.Engine

	// OutDir receives the final bundle.
	OutDir string

	// WorkBaseDir is where work directories are created. Empty means
	// the system temp directory.
	WorkBaseDir string
}

// Run executes the pipeline and returns exactly one [Artifact] on success.
//
// On any failure the work directory is discarded and nothing is written to
// the final artifact path.
func (p *Pipeline) Run(ctx context.Context) (*Artifact, error) {
	err := p.Config.Validate()
	if err != nil {
		return nil, err
	}

	strategy, err := NewStrategy(p.Config)
	if err != nil {
		return nil, err
	}

	// Fail fast on missing tools, before any work directory exists.
	err = tools.Check(p.Runner, strategy.Dependencies()...)
	if err != nil {
		return nil, err
	}

	var decision strip.Decision
	if p.Config.StripModules {
		decision = strip.Decide(p.Config.Keep, p.Config.AppDeps)
	}

	sizeEstimate := estimate.Size(p.Config, decision)

	log.Info().
		Str("strategy", strategy.Name()).
		Str("estimated_size", sizeEstimate.String()).
		Int("removed_components", len(decision.Removed)).
		Msg("Starting build")

	work, err := NewWorkDir(p.WorkBaseDir)
	if err != nil {
		return nil, err
	}
	defer work.Release()

	env := &Env{
		Config:   p.Config,
		Decision: decision,
		Work:     work,
		Runner:   p.Runner,
		Engine:   p.Engine,
	}

	output, err := strategy.Assemble(ctx, env)
	if err != nil {
		return nil, err
	}

	artifact, err := Package(p.Config, output, p.OutDir, sizeEstimate)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("artifact", artifact.ImagePath).
		Float64("size_mb", artifact.SizeMB).
		Msg("Build finished")

	return artifact, nil
}

// runTool invokes an external tool and turns a non-zero exit into an error
// carrying the captured output.
func runTool(
	ctx context.Context,
	runner tools.Runner,
	dir string,
	argv ...string,
) error {
	result, err := runner.Run(ctx, dir, argv...)
	if err != nil {
		return err
	}

	if !result.Successful() {
		return fmt.Errorf(
			"%s exited with code %d: %s",
			argv[0], result.ExitCode, result.Detail(),
		)
	}

	return nil
}
