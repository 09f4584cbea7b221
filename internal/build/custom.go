// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/container"
	"github.com/microbeam/microbeam/internal/initramfs"
	"github.com/microbeam/microbeam/internal/kconfig"
)

// Pinned sources for the custom strategy. Reproducibility beats freshness
// here; bumping a version is a deliberate change.
const (
	kernelVersion = "6.6.58"
	kernelTarball = "linux-" + kernelVersion + ".tar.xz"
	kernelURL     = "https://cdn.kernel.org/pub/linux/kernel/v6.x/" + kernelTarball

	busyboxVersion = "1.36.1"
	busyboxTarball = "busybox-" + busyboxVersion + ".tar.bz2"
	busyboxURL     = "https://busybox.net/downloads/" + busyboxTarball

	// runtimeImage is the reference environment the runtime distribution
	// is extracted from.
	runtimeImage = "erlang:27.1-slim"
	runtimePath  = "/usr/local/lib/erlang"
)

// customStrategy builds a kernel and a static BusyBox userland, extracts
// and prunes the runtime, installs the application and archives the result
// as a compressed initramfs.
type customStrategy struct{}

func (s *customStrategy) Name() string {
	return config.TypeCustom.String()
}

func (s *customStrategy) Dependencies() []string {
	return []string{"curl", "tar", "make", "gcc", container.DockerBinary}
}

// customState is threaded through the pipeline stages. Each stage fills
// the fields the next one consumes.
type customState struct {
	env     *Env
	staging string

	kernelPath    string
	initramfsPath string
}

type customStage struct {
	name string
	fn   func(ctx context.Context, st *customState) error
}

func (s *customStrategy) stages() []customStage {
	return []customStage{
		{"kernel", s.buildKernel},
		{"userland", s.buildUserland},
		{"runtime", s.extractRuntime},
		{"app", s.installApp},
		{"init", s.writeInit},
		{"archive", s.archive},
	}
}

// Assemble runs the six pipeline stages sequentially. The first failing
// stage aborts the run with a [StageError]; later stages are skipped and
// the work directory is discarded by the pipeline.
func (s *customStrategy) Assemble(
	ctx context.Context,
	env *Env,
) (*Output, error) {
	st := &customState{
		env:     env,
		staging: env.Work.Join("staging"),
	}

	err := os.MkdirAll(st.staging, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}

	for _, stage := range s.stages() {
		log.Info().Str("stage", stage.name).Msg("Running stage")

		err := stage.fn(ctx, st)
		if err != nil {
			return nil, &StageError{Stage: stage.name, Err: err}
		}
	}

	return &Output{
		Files: map[string]string{
			"bzImage":       st.kernelPath,
			"initramfs.img": st.initramfsPath,
		},
		Metadata: map[string]string{
			"kernel_version":  kernelVersion,
			"busybox_version": busyboxVersion,
			"runtime_image":   runtimeImage,
		},
	}, nil
}

// buildKernel fetches the pinned kernel source, writes the generated
// feature profile on top of a tinyconfig base and compiles a bzImage.
func (s *customStrategy) buildKernel(
	ctx context.Context,
	st *customState,
) error {
	env := st.env

	srcDir, err := fetchSource(
		ctx, env, kernelURL, kernelTarball, "linux-"+kernelVersion,
	)
	if err != nil {
		return err
	}

	err = runTool(ctx, env.Runner, srcDir, "make", "tinyconfig")
	if err != nil {
		return err
	}

	profile := kconfig.Generate(env.Config.VMOptions)

	err = appendConfig(filepath.Join(srcDir, ".config"), profile.WriteConfig)
	if err != nil {
		return err
	}

	err = runTool(ctx, env.Runner, srcDir, "make", "olddefconfig")
	if err != nil {
		return err
	}

	err = runTool(
		ctx, env.Runner, srcDir,
		"make", "-j"+strconv.Itoa(runtime.NumCPU()), "bzImage",
	)
	if err != nil {
		return err
	}

	imagePath := filepath.Join(srcDir, "arch/x86/boot/bzImage")

	_, err = os.Stat(imagePath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoKernelImage, imagePath)
	}

	st.kernelPath = env.Work.Join("bzImage")

	return copyFile(imagePath, st.kernelPath)
}

// buildUserland compiles a statically linked BusyBox and installs it into
// the staging root.
func (s *customStrategy) buildUserland(
	ctx context.Context,
	st *customState,
) error {
	env := st.env

	srcDir, err := fetchSource(
		ctx, env, busyboxURL, busyboxTarball, "busybox-"+busyboxVersion,
	)
	if err != nil {
		return err
	}

	err = runTool(ctx, env.Runner, srcDir, "make", "defconfig")
	if err != nil {
		return err
	}

	// Static linking, so the userland works without any shared
	// libraries in the image.
	err = appendConfigLines(
		filepath.Join(srcDir, ".config"), "CONFIG_STATIC=y",
	)
	if err != nil {
		return err
	}

	return runTool(
		ctx, env.Runner, srcDir,
		"make", "-j"+strconv.Itoa(runtime.NumCPU()),
		"CONFIG_PREFIX="+st.staging, "install",
	)
}

// extractRuntime exports the runtime distribution from the reference
// container image and deletes the components the retention decision
// removed.
func (s *customStrategy) extractRuntime(
	ctx context.Context,
	st *customState,
) error {
	env := st.env

	optDir := filepath.Join(st.staging, "opt")

	err := os.MkdirAll(optDir, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", optDir, err)
	}

	image, err := referenceImage(ctx, env)
	if err != nil {
		return err
	}

	err = env.Engine.CopyOut(ctx, image, runtimePath, optDir)
	if err != nil {
		return err
	}

	if !env.Config.StripModules {
		return nil
	}

	libDir := filepath.Join(optDir, "erlang", "lib")

	for _, component := range env.Decision.Removed {
		// Library directories are versioned, e.g. "wx-2.4.2".
		matches, err := filepath.Glob(
			filepath.Join(libDir, string(component)+"-*"),
		)
		if err != nil {
			return fmt.Errorf("glob %s: %w", component, err)
		}

		for _, match := range matches {
			err := os.RemoveAll(match)
			if err != nil {
				return fmt.Errorf("remove %s: %w", match, err)
			}

			log.Debug().
				Str("component", string(component)).
				Str("path", match).
				Msg("Removed component")
		}
	}

	return nil
}

// referenceImage returns the container image the runtime is extracted
// from. Extra packages are installed into a derived image first, so their
// shared libraries end up in the extracted tree.
func referenceImage(ctx context.Context, env *Env) (string, error) {
	if len(env.Config.Packages) == 0 {
		return runtimeImage, nil
	}

	dockerfile := env.Work.Join("Dockerfile.ref")

	content := "FROM " + runtimeImage + "\n" +
		"RUN apt-get update && apt-get install -y --no-install-recommends " +
		strings.Join(env.Config.Packages, " ") +
		" && rm -rf /var/lib/apt/lists/*\n"

	err := os.WriteFile(dockerfile, []byte(content), 0o644)
	if err != nil {
		return "", fmt.Errorf("write reference dockerfile: %w", err)
	}

	return env.Engine.Build(
		ctx, dockerfile, env.Work.Path, "microbeam-ref:"+kernelVersion,
	)
}

// installApp copies the application release into the staging root. Without
// an application the image boots into an interactive runtime shell.
func (s *customStrategy) installApp(
	_ context.Context,
	st *customState,
) error {
	appPath := st.env.Config.AppPath
	if appPath == "" {
		return nil
	}

	warnForeignELF(appPath)

	return copyTree(appPath, filepath.Join(st.staging, "opt", "app"))
}

// writeInit generates the /init script. It mounts the virtual filesystems
// and execs the final process, replacing init rather than forking a child
// that would leave init orphaned.
func (s *customStrategy) writeInit(
	_ context.Context,
	st *customState,
) error {
	for _, dir := range []string{"proc", "sys", "dev", "root", "tmp"} {
		err := os.MkdirAll(filepath.Join(st.staging, dir), 0o755)
		if err != nil {
			return fmt.Errorf("create /%s: %w", dir, err)
		}
	}

	startCmd := "/opt/erlang/bin/erl"
	if st.env.Config.AppPath != "" {
		startCmd = "/opt/app/bin/start \"$@\""
	}

	script := strings.Join([]string{
		"#!/bin/sh",
		"mount -t proc proc /proc",
		"mount -t sysfs sysfs /sys",
		"mount -t devtmpfs devtmpfs /dev",
		"export HOME=/root",
		"export PATH=/bin:/sbin:/usr/bin:/usr/sbin:/opt/erlang/bin",
		"echo '" + BootMarker + "'",
		"exec " + startCmd,
		"",
	}, "\n")

	initPath := filepath.Join(st.staging, "init")

	err := os.WriteFile(initPath, []byte(script), 0o755)
	if err != nil {
		return fmt.Errorf("write init script: %w", err)
	}

	return nil
}

// archive serializes the staging root into the compressed initramfs.
func (s *customStrategy) archive(_ context.Context, st *customState) error {
	st.initramfsPath = st.env.Work.Join("initramfs.img")

	return initramfs.Create(
		st.initramfsPath, st.staging, st.env.Config.Compression,
	)
}

// fetchSource downloads and unpacks a pinned source tarball into the work
// directory and returns the unpacked directory.
func fetchSource(
	ctx context.Context,
	env *Env,
	url, tarball, dirName string,
) (string, error) {
	tarballPath := env.Work.Join(tarball)

	err := runTool(
		ctx, env.Runner, env.Work.Path,
		"curl", "-fsSL", "-o", tarballPath, url,
	)
	if err != nil {
		return "", err
	}

	err = runTool(
		ctx, env.Runner, env.Work.Path,
		"tar", "-xf", tarballPath, "-C", env.Work.Path,
	)
	if err != nil {
		return "", err
	}

	return env.Work.Join(dirName), nil
}

// appendConfig appends writer output to an existing config file.
func appendConfig(path string, write func(w io.Writer) error) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	err = write(file)
	if err != nil {
		return err
	}

	return file.Close()
}

// appendConfigLines appends raw lines to an existing config file.
func appendConfigLines(path string, lines ...string) error {
	return appendConfig(path, func(w io.Writer) error {
		_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
		return err
	})
}
