// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package validate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/microbeam/microbeam/internal/build"
	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/container"
	"github.com/microbeam/microbeam/internal/firmware"
	"github.com/microbeam/microbeam/internal/qemu"
	"github.com/microbeam/microbeam/internal/tools"
)

// functionalProbe is executed inside the artifact's runtime to prove the
// runtime actually evaluates code, not just that the image boots.
var functionalProbe = []string{
	"erl", "-noshell",
	"-eval", `io:format("microbeam functional ok~n")`,
	"-s", "init", "stop",
}

// functionalPattern must appear in the probe output.
const functionalPattern = "microbeam functional ok"

// bootProbe makes the runtime itself emit the boot marker. A runtime that
// cannot start, for example because stripping removed a component it needs,
// fails the boot check here instead of surfacing later as a functional
// failure.
func bootProbe(marker string) []string {
	return []string{
		"erl", "-noshell",
		"-eval", `io:format("` + marker + `~n")`,
		"-s", "init", "stop",
	}
}

// BootResult is what a backend's boot check hands to the functional probe.
type BootResult struct {
	// Output is the captured console or probe output.
	Output string

	// Metadata carries backend annotations merged into the report.
	Metadata map[string]string

	// ProbeSupported is false for backends that cannot execute code in
	// the artifact. The functional check is then skipped and recorded as
	// skipped, never silently passed.
	ProbeSupported bool
}

// Backend performs the boot and functional checks for one artifact type.
type Backend interface {
	Boot(ctx context.Context, artifact *build.Artifact) (*BootResult, error)
	Probe(ctx context.Context, boot *BootResult) error
}

// dockerBackend checks layer bundles by loading them into the container
// engine and running probe commands in the resulting image.
type dockerBackend struct {
	engine      container.Engine
	compression config.Compression
	workBase    string
}

func (b *dockerBackend) Boot(
	ctx context.Context,
	artifact *build.Artifact,
) (*BootResult, error) {
	members, release, err := extractBundle(artifact, b.compression, b.workBase)
	if err != nil {
		return nil, err
	}
	defer release()

	layersPath, ok := members["layers.tar"]
	if !ok {
		return nil, &CheckError{
			Check:  CheckBoot,
			Reason: "bundle has no layers.tar member",
		}
	}

	image, err := b.engine.Load(ctx, layersPath)
	if err != nil {
		return nil, &CheckError{
			Check: CheckBoot, Reason: "load image", Err: err,
		}
	}

	marker := build.BootMarker

	output, exitCode, err := b.engine.Run(ctx, image, bootProbe(marker))
	if err != nil {
		return nil, &CheckError{
			Check: CheckBoot, Reason: "run container", Err: err,
		}
	}

	if exitCode != 0 || !strings.Contains(output, marker) {
		return nil, &CheckError{
			Check: CheckBoot,
			Reason: fmt.Sprintf(
				"marker %q not found, exit code %d", marker, exitCode,
			),
		}
	}

	return &BootResult{
		Output: output,
		Metadata: map[string]string{
			"image":  image,
			"marker": marker,
		},
		ProbeSupported: true,
	}, nil
}

func (b *dockerBackend) Probe(
	ctx context.Context,
	boot *BootResult,
) error {
	image := boot.Metadata["image"]

	output, exitCode, err := b.engine.Run(ctx, image, functionalProbe)
	if err != nil {
		return &CheckError{
			Check: CheckFunctional, Reason: "run probe", Err: err,
		}
	}

	if exitCode != 0 || !strings.Contains(output, functionalPattern) {
		return &CheckError{
			Check: CheckFunctional,
			Reason: fmt.Sprintf(
				"probe output missing %q, exit code %d",
				functionalPattern, exitCode,
			),
		}
	}

	return nil
}

// qemuBackend checks kernel+initramfs bundles by booting them under QEMU
// with a hard wall-clock timeout.
type qemuBackend struct {
	compression config.Compression
	workBase    string
	timeout     time.Duration

	// runtimePattern is the console output expected from the runtime
	// after boot. With no application installed the interactive shell
	// banner serves as the pattern.
	runtimePattern string
}

func (b *qemuBackend) Boot(
	ctx context.Context,
	artifact *build.Artifact,
) (*BootResult, error) {
	members, release, err := extractBundle(artifact, b.compression, b.workBase)
	if err != nil {
		return nil, err
	}
	defer release()

	for _, member := range []string{"bzImage", "initramfs.img"} {
		if members[member] == "" {
			return nil, &CheckError{
				Check:  CheckBoot,
				Reason: "bundle has no " + member + " member",
			}
		}
	}

	command, err := qemu.NewCommand(qemu.CommandSpec{
		Kernel:    members["bzImage"],
		Initramfs: members["initramfs.img"],
		Marker:    build.BootMarker,
	})
	if err != nil {
		return nil, &CheckError{
			Check: CheckBoot, Reason: "assemble boot command", Err: err,
		}
	}

	log.Debug().Str("command", command.String()).Msg("Booting artifact")

	bootCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	output, err := command.Run(bootCtx)
	if err != nil {
		return nil, &CheckError{
			Check: CheckBoot, Reason: "guest boot", Err: err,
		}
	}

	return &BootResult{
		Output: output,
		Metadata: map[string]string{
			"marker": build.BootMarker,
		},
		ProbeSupported: true,
	}, nil
}

// Probe scans the captured console output for the runtime pattern. The
// guest console is the only channel out of the emulator, so the functional
// evidence rides on the boot output instead of a second execution.
func (b *qemuBackend) Probe(_ context.Context, boot *BootResult) error {
	if !strings.Contains(boot.Output, b.runtimePattern) {
		return &CheckError{
			Check: CheckFunctional,
			Reason: fmt.Sprintf(
				"console output missing %q", b.runtimePattern,
			),
		}
	}

	return nil
}

// firmwareBackend checks firmware images by metadata introspection. There
// is no emulation target for the hardware, so this is a weaker check than
// an actual boot and is annotated as such.
type firmwareBackend struct {
	runner      tools.Runner
	compression config.Compression
	workBase    string
}

func (b *firmwareBackend) Boot(
	ctx context.Context,
	artifact *build.Artifact,
) (*BootResult, error) {
	members, release, err := extractBundle(artifact, b.compression, b.workBase)
	if err != nil {
		return nil, err
	}
	defer release()

	imagePath, ok := members["image.fw"]
	if !ok {
		return nil, &CheckError{
			Check:  CheckBoot,
			Reason: "bundle has no image.fw member",
		}
	}

	metadata, err := firmware.Introspect(ctx, b.runner, imagePath)
	if err != nil {
		return nil, &CheckError{
			Check: CheckBoot, Reason: "introspect firmware", Err: err,
		}
	}

	err = firmware.Validate(metadata)
	if err != nil {
		return nil, &CheckError{
			Check: CheckBoot, Reason: "firmware metadata", Err: err,
		}
	}

	annotated := map[string]string{"boot_check": "metadata-only"}
	for key, value := range metadata {
		annotated[key] = value
	}

	return &BootResult{
		Metadata:       annotated,
		ProbeSupported: false,
	}, nil
}

func (b *firmwareBackend) Probe(context.Context, *BootResult) error {
	return &CheckError{
		Check:  CheckFunctional,
		Reason: "firmware images cannot execute probes",
	}
}

// extractBundle unpacks the artifact bundle into a scratch directory. The
// returned release function removes the scratch directory again once the
// extracted members are no longer needed.
func extractBundle(
	artifact *build.Artifact,
	compression config.Compression,
	workBase string,
) (map[string]string, func(), error) {
	work, err := build.NewWorkDir(workBase)
	if err != nil {
		return nil, nil, &CheckError{
			Check: CheckBoot, Reason: "create scratch dir", Err: err,
		}
	}

	members, err := build.ExtractBundle(
		artifact.ImagePath, work.Path, compression,
	)
	if err != nil {
		work.Release()

		return nil, nil, &CheckError{
			Check: CheckBoot, Reason: "extract bundle", Err: err,
		}
	}

	return members, work.Release, nil
}
