// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/firmware"
)

// firmwareProjectOption is the vm_options key naming the fwup project
// directory, which must contain an fwup.conf.
const firmwareProjectOption = "firmware_project"

// firmwareStrategy wraps an existing fwup project. The heavy lifting is in
// the project's own configuration; the strategy runs the assembly and
// verifies the result carries the required metadata.
type firmwareStrategy struct{}

func (s *firmwareStrategy) Name() string {
	return config.TypeFirmware.String()
}

func (s *firmwareStrategy) Dependencies() []string {
	return []string{firmware.Binary}
}

func (s *firmwareStrategy) Assemble(
	ctx context.Context,
	env *Env,
) (*Output, error) {
	projectDir := env.Config.VMOptions[firmwareProjectOption]
	if projectDir == "" {
		return nil, fmt.Errorf(
			"%w: set vm_options.%s", ErrNoFirmwareProject,
			firmwareProjectOption,
		)
	}

	confPath := filepath.Join(projectDir, "fwup.conf")

	_, err := os.Stat(confPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoFirmwareProject, confPath)
	}

	imagePath := env.Work.Join("image.fw")

	err = runTool(
		ctx, env.Runner, projectDir,
		firmware.Binary, "-c", "-f", confPath, "-o", imagePath,
	)
	if err != nil {
		return nil, &StageError{Stage: "assemble", Err: err}
	}

	metadata, err := firmware.Introspect(ctx, env.Runner, imagePath)
	if err != nil {
		return nil, &StageError{Stage: "introspect", Err: err}
	}

	err = firmware.Validate(metadata)
	if err != nil {
		return nil, &StageError{Stage: "introspect", Err: err}
	}

	return &Output{
		Files: map[string]string{
			"image.fw": imagePath,
		},
		Metadata: metadata,
	}, nil
}
