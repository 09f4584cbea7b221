// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/container"
)

// dockerStrategy builds a stripped runtime container image and exports its
// layers. It is the fastest strategy, trading boot footprint for build
// simplicity.
type dockerStrategy struct{}

func (s *dockerStrategy) Name() string {
	return config.TypeDocker.String()
}

func (s *dockerStrategy) Dependencies() []string {
	return []string{container.DockerBinary}
}

func (s *dockerStrategy) Assemble(
	ctx context.Context,
	env *Env,
) (*Output, error) {
	dockerfile := env.Work.Join("Dockerfile")

	err := os.WriteFile(
		dockerfile, []byte(s.dockerfile(env)), 0o644,
	)
	if err != nil {
		return nil, &StageError{
			Stage: "dockerfile",
			Err:   fmt.Errorf("write dockerfile: %w", err),
		}
	}

	if env.Config.AppPath != "" {
		err := copyTree(env.Config.AppPath, env.Work.Join("app"))
		if err != nil {
			return nil, &StageError{Stage: "dockerfile", Err: err}
		}
	}

	tag := "microbeam:" + uuid.NewString()

	image, err := env.Engine.Build(ctx, dockerfile, env.Work.Path, tag)
	if err != nil {
		return nil, &StageError{Stage: "image", Err: err}
	}

	layersPath := env.Work.Join("layers.tar")

	err = env.Engine.Save(ctx, image, layersPath)
	if err != nil {
		return nil, &StageError{Stage: "export", Err: err}
	}

	return &Output{
		Files: map[string]string{
			"layers.tar": layersPath,
		},
		Metadata: map[string]string{
			"image":         image,
			"runtime_image": runtimeImage,
		},
	}, nil
}

// dockerfile renders the build instructions: start from the reference
// runtime image, delete removed components, install extra packages and the
// application.
func (s *dockerStrategy) dockerfile(env *Env) string {
	var b strings.Builder

	fmt.Fprintln(&b, "FROM "+runtimeImage)

	if len(env.Config.Packages) > 0 {
		fmt.Fprintln(
			&b,
			"RUN apt-get update && "+
				"apt-get install -y --no-install-recommends "+
				strings.Join(env.Config.Packages, " ")+
				" && rm -rf /var/lib/apt/lists/*",
		)
	}

	if env.Config.StripModules && len(env.Decision.Removed) > 0 {
		var removals []string
		for _, component := range env.Decision.Removed {
			removals = append(
				removals,
				runtimePath+"/lib/"+string(component)+"-*",
			)
		}

		fmt.Fprintln(&b, "RUN rm -rf "+strings.Join(removals, " "))
	}

	if env.Config.AppPath != "" {
		fmt.Fprintln(&b, "COPY app /opt/app")
		fmt.Fprintln(&b, `CMD ["/opt/app/bin/start"]`)
	} else {
		fmt.Fprintln(&b, `CMD ["erl"]`)
	}

	return b.String()
}
