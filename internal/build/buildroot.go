// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/container"
)

const (
	buildrootVersion = "2024.02.8"
	buildrootTarball = "buildroot-" + buildrootVersion + ".tar.gz"
	buildrootURL     = "https://buildroot.org/downloads/" + buildrootTarball
)

// buildrootStrategy delegates kernel and userland builds to a pinned
// Buildroot release. It produces the same bundle members as the custom
// strategy, so downstream validation does not care which of the two built
// the image.
type buildrootStrategy struct{}

func (s *buildrootStrategy) Name() string {
	return config.TypeBuildroot.String()
}

func (s *buildrootStrategy) Dependencies() []string {
	return []string{"curl", "tar", "make", "gcc", container.DockerBinary}
}

func (s *buildrootStrategy) Assemble(
	ctx context.Context,
	env *Env,
) (*Output, error) {
	srcDir, err := fetchSource(
		ctx, env, buildrootURL, buildrootTarball,
		"buildroot-"+buildrootVersion,
	)
	if err != nil {
		return nil, &StageError{Stage: "fetch", Err: err}
	}

	overlay, err := s.buildOverlay(ctx, env)
	if err != nil {
		return nil, &StageError{Stage: "overlay", Err: err}
	}

	err = s.writeDefconfig(env, srcDir, overlay)
	if err != nil {
		return nil, &StageError{Stage: "configure", Err: err}
	}

	err = runTool(ctx, env.Runner, srcDir, "make", "microbeam_defconfig")
	if err != nil {
		return nil, &StageError{Stage: "configure", Err: err}
	}

	err = runTool(
		ctx, env.Runner, srcDir,
		"make", "-j"+strconv.Itoa(runtime.NumCPU()),
	)
	if err != nil {
		return nil, &StageError{Stage: "build", Err: err}
	}

	imagesDir := filepath.Join(srcDir, "output", "images")
	kernelPath := filepath.Join(imagesDir, "bzImage")

	_, err = os.Stat(kernelPath)
	if err != nil {
		return nil, &StageError{
			Stage: "build",
			Err:   fmt.Errorf("%w: %s", ErrNoKernelImage, kernelPath),
		}
	}

	rootfsPath := filepath.Join(
		imagesDir, "rootfs.cpio"+env.Config.Compression.Ext(),
	)

	_, err = os.Stat(rootfsPath)
	if err != nil {
		return nil, &StageError{
			Stage: "build",
			Err:   fmt.Errorf("%w: %s", ErrNoRootfsImage, rootfsPath),
		}
	}

	return &Output{
		Files: map[string]string{
			"bzImage":       kernelPath,
			"initramfs.img": rootfsPath,
		},
		Metadata: map[string]string{
			"buildroot_version": buildrootVersion,
			"runtime_image":     runtimeImage,
		},
	}, nil
}

// buildOverlay assembles a rootfs overlay with the runtime distribution,
// the application release and the init script. Buildroot merges it into
// the target filesystem after its own packages.
func (s *buildrootStrategy) buildOverlay(
	ctx context.Context,
	env *Env,
) (string, error) {
	overlay := env.Work.Join("overlay")
	st := &customState{env: env, staging: overlay}

	err := os.MkdirAll(overlay, 0o755)
	if err != nil {
		return "", fmt.Errorf("create overlay root: %w", err)
	}

	strategy := &customStrategy{}

	for _, stage := range []customStage{
		{"runtime", strategy.extractRuntime},
		{"app", strategy.installApp},
		{"init", strategy.writeInit},
	} {
		log.Info().Str("stage", stage.name).Msg("Preparing overlay")

		err := stage.fn(ctx, st)
		if err != nil {
			return "", fmt.Errorf("overlay %s: %w", stage.name, err)
		}
	}

	return overlay, nil
}

// writeDefconfig renders the Buildroot configuration into the tree's
// configs directory so a plain "make microbeam_defconfig" picks it up.
func (s *buildrootStrategy) writeDefconfig(
	env *Env,
	srcDir, overlay string,
) error {
	lines := []string{
		"BR2_x86_64=y",
		"BR2_TOOLCHAIN_BUILDROOT_GLIBC=y",
		"BR2_LINUX_KERNEL=y",
		"BR2_LINUX_KERNEL_CUSTOM_VERSION=y",
		`BR2_LINUX_KERNEL_CUSTOM_VERSION_VALUE="` + kernelVersion + `"`,
		"BR2_LINUX_KERNEL_USE_ARCH_DEFAULT_CONFIG=y",
		"BR2_TARGET_ROOTFS_CPIO=y",
		`BR2_ROOTFS_OVERLAY="` + overlay + `"`,
		// The overlay ships its own /init, skip the default init system.
		"BR2_INIT_NONE=y",
		"# BR2_TARGET_ROOTFS_TAR is not set",
	}

	switch env.Config.Compression {
	case config.CompressionXZ:
		lines = append(lines, "BR2_TARGET_ROOTFS_CPIO_XZ=y")
	case config.CompressionGzip:
		lines = append(lines, "BR2_TARGET_ROOTFS_CPIO_GZIP=y")
	case config.CompressionNone:
		lines = append(lines, "BR2_TARGET_ROOTFS_CPIO_NONE=y")
	}

	configsDir := filepath.Join(srcDir, "configs")

	err := os.MkdirAll(configsDir, 0o755)
	if err != nil {
		return fmt.Errorf("create configs dir: %w", err)
	}

	path := filepath.Join(configsDir, "microbeam_defconfig")

	err = os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
	if err != nil {
		return fmt.Errorf("write defconfig: %w", err)
	}

	return nil
}
