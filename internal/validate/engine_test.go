// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package validate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microbeam/microbeam/internal/build"
	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/container"
	"github.com/microbeam/microbeam/internal/estimate"
	"github.com/microbeam/microbeam/internal/tools"
	"github.com/microbeam/microbeam/internal/validate"
)

// cannedRunner returns the same result for every tool invocation and
// records the argument vectors.
type cannedRunner struct {
	argvs  [][]string
	result tools.Result
}

func (r *cannedRunner) Run(
	_ context.Context,
	_ string,
	argv ...string,
) (tools.Result, error) {
	r.argvs = append(r.argvs, argv)

	return r.result, nil
}

func (r *cannedRunner) LookPath(name string) (string, error) {
	return "/usr/bin/" + name, nil
}

// fakeBackend scripts the boot and probe outcomes.
type fakeBackend struct {
	bootResult *validate.BootResult
	bootErr    error
	probeErr   error
}

func (f *fakeBackend) Boot(
	_ context.Context,
	_ *build.Artifact,
) (*validate.BootResult, error) {
	return f.bootResult, f.bootErr
}

func (f *fakeBackend) Probe(
	_ context.Context,
	_ *validate.BootResult,
) error {
	return f.probeErr
}

// packageBundle wraps [build.Package] for artifacts assembled by hand.
func packageBundle(
	t *testing.T,
	cfg config.Config,
	files map[string]string,
) *build.Artifact {
	t.Helper()

	artifact, err := build.Package(
		cfg,
		&build.Output{Files: files},
		t.TempDir(),
		estimate.Range{LowMB: 11, HighMB: 16},
	)
	require.NoError(t, err)

	return artifact
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))

	return path
}

func TestValidateMissingArtifact(t *testing.T) {
	engine := &validate.Engine{Config: config.Default()}

	artifact := &build.Artifact{
		ImagePath: filepath.Join(t.TempDir(), "missing.tar"),
		Type:      config.TypeCustom,
	}

	report, err := engine.Validate(context.Background(), artifact)
	require.NotNil(t, report)

	var checkErr *validate.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, validate.CheckExists, checkErr.Check)

	assert.False(t, report.Exists)
	assert.False(t, report.SizeOK)
	assert.False(t, report.Bootable)
	assert.False(t, report.Functional)
}

func TestValidateSizeExceeded(t *testing.T) {
	cfg := config.Default()
	cfg.TargetSizeMB = 1

	engine := &validate.Engine{
		Config:        cfg,
		SizeTolerance: 1.2,
		Backend:       &fakeBackend{},
	}

	artifact := &build.Artifact{
		ImagePath: writeFile(t, "image.tar", 2<<20),
		Type:      config.TypeCustom,
	}

	report, err := engine.Validate(context.Background(), artifact)

	var checkErr *validate.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, validate.CheckSize, checkErr.Check)

	assert.True(t, report.Exists)
	assert.False(t, report.SizeOK)
	assert.False(t, report.Bootable)
	assert.InDelta(t, 2.0, report.MeasuredSizeMB, 0.01)
}

func TestValidateSizeWithinTolerance(t *testing.T) {
	cfg := config.Default()
	cfg.TargetSizeMB = 1

	// 1.25 MB measured against a 1 MB target passes with the default
	// tolerance of 1.5.
	engine := &validate.Engine{
		Config: cfg,
		Backend: &fakeBackend{
			bootResult: &validate.BootResult{ProbeSupported: true},
		},
	}

	artifact := &build.Artifact{
		ImagePath: writeFile(t, "image.tar", 5<<18),
		Type:      config.TypeCustom,
	}

	report, err := engine.Validate(context.Background(), artifact)
	require.NoError(t, err)
	assert.True(t, report.SizeOK)
	assert.True(t, report.Functional)
}

func TestValidateBootFailure(t *testing.T) {
	engine := &validate.Engine{
		Config: config.Default(),
		Backend: &fakeBackend{
			bootErr: &validate.CheckError{
				Check:  validate.CheckBoot,
				Reason: "guest never printed the marker",
			},
		},
	}

	artifact := &build.Artifact{
		ImagePath: writeFile(t, "image.tar", 1024),
		Type:      config.TypeCustom,
	}

	report, err := engine.Validate(context.Background(), artifact)

	var checkErr *validate.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, validate.CheckBoot, checkErr.Check)

	assert.True(t, report.Exists)
	assert.True(t, report.SizeOK)
	assert.False(t, report.Bootable)
	assert.False(t, report.Functional)
}

func TestValidateProbeFailure(t *testing.T) {
	engine := &validate.Engine{
		Config: config.Default(),
		Backend: &fakeBackend{
			bootResult: &validate.BootResult{
				ProbeSupported: true,
				Metadata:       map[string]string{"marker": "m"},
			},
			probeErr: &validate.CheckError{
				Check:  validate.CheckFunctional,
				Reason: "probe output missing pattern",
			},
		},
	}

	artifact := &build.Artifact{
		ImagePath: writeFile(t, "image.tar", 1024),
		Type:      config.TypeCustom,
	}

	report, err := engine.Validate(context.Background(), artifact)

	var checkErr *validate.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, validate.CheckFunctional, checkErr.Check)

	assert.True(t, report.Bootable)
	assert.False(t, report.Functional)
	assert.Equal(t, "m", report.Metadata["marker"])
}

func TestValidateProbeSkipped(t *testing.T) {
	engine := &validate.Engine{
		Config: config.Default(),
		Backend: &fakeBackend{
			bootResult: &validate.BootResult{
				ProbeSupported: false,
				Metadata: map[string]string{
					"boot_check": "metadata-only",
				},
			},
		},
	}

	artifact := &build.Artifact{
		ImagePath: writeFile(t, "image.fw", 1024),
		Type:      config.TypeFirmware,
	}

	report, err := engine.Validate(context.Background(), artifact)
	require.NoError(t, err)

	assert.True(t, report.Bootable)
	assert.False(t, report.Functional)
	assert.Equal(t, "metadata-only", report.Metadata["boot_check"])
	assert.Equal(t, "skipped", report.Metadata["functional_check"])
}

func TestValidateFirmware(t *testing.T) {
	cfg := config.Default()
	cfg.Type = config.TypeFirmware
	cfg.Compression = config.CompressionNone

	// The bundle wraps the firmware image the same way the build pipeline
	// does; introspection must target the unpacked member, not the bundle.
	artifact := packageBundle(t, cfg, map[string]string{
		"image.fw": writeFile(t, "image.fw", 4096),
	})

	runner := &cannedRunner{
		result: tools.Result{
			Stdout: "meta-product=\"sensor\"\nmeta-version=\"1.0\"\n",
		},
	}

	engine := &validate.Engine{
		Config:      cfg,
		Runner:      runner,
		WorkBaseDir: t.TempDir(),
	}

	report, err := engine.Validate(context.Background(), artifact)
	require.NoError(t, err)

	assert.True(t, report.Bootable)
	assert.False(t, report.Functional)
	assert.Equal(t, "metadata-only", report.Metadata["boot_check"])
	assert.Equal(t, "skipped", report.Metadata["functional_check"])
	assert.Equal(t, "sensor", report.Metadata["meta-product"])

	require.Len(t, runner.argvs, 1)
	introspected := runner.argvs[0][len(runner.argvs[0])-1]
	assert.True(
		t, strings.HasSuffix(introspected, string(os.PathSeparator)+"image.fw"),
		"introspected %q instead of the image.fw member", introspected,
	)
	assert.NotEqual(t, artifact.ImagePath, introspected)
}

func TestValidateFirmwareMissingMember(t *testing.T) {
	cfg := config.Default()
	cfg.Type = config.TypeFirmware
	cfg.Compression = config.CompressionNone

	artifact := packageBundle(t, cfg, map[string]string{
		"layers.tar": writeFile(t, "layers.tar", 1024),
	})

	engine := &validate.Engine{
		Config:      cfg,
		Runner:      &cannedRunner{},
		WorkBaseDir: t.TempDir(),
	}

	report, err := engine.Validate(context.Background(), artifact)

	var checkErr *validate.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, validate.CheckBoot, checkErr.Check)
	assert.Contains(t, checkErr.Reason, "image.fw")

	assert.False(t, report.Bootable)
}

func TestValidateDocker(t *testing.T) {
	cfg := config.Default()
	cfg.Type = config.TypeDocker
	cfg.Compression = config.CompressionNone

	artifact := packageBundle(t, cfg, map[string]string{
		"layers.tar": writeFile(t, "layers.tar", 2048),
	})

	fake := &container.FakeEngine{
		ProbeOutput: build.BootMarker + "\nmicrobeam functional ok\n",
	}

	engine := &validate.Engine{
		Config:      cfg,
		Containers:  fake,
		WorkBaseDir: t.TempDir(),
	}

	report, err := engine.Validate(context.Background(), artifact)
	require.NoError(t, err)

	assert.True(t, report.Exists)
	assert.True(t, report.SizeOK)
	assert.True(t, report.Bootable)
	assert.True(t, report.Functional)

	require.Len(t, fake.LoadedPaths, 1)
	require.Len(t, fake.RunArgvs, 2)

	// The boot probe must start the runtime itself, not just any process
	// in the container.
	assert.Equal(t, "erl", fake.RunArgvs[0][0])
	assert.Contains(
		t, strings.Join(fake.RunArgvs[0], " "), build.BootMarker,
	)
	assert.Equal(t, "erl", fake.RunArgvs[1][0])
}

func TestValidateDockerMarkerMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Type = config.TypeDocker
	cfg.Compression = config.CompressionNone

	artifact := packageBundle(t, cfg, map[string]string{
		"layers.tar": writeFile(t, "layers.tar", 2048),
	})

	fake := &container.FakeEngine{ProbeOutput: "no marker here"}

	engine := &validate.Engine{
		Config:      cfg,
		Containers:  fake,
		WorkBaseDir: t.TempDir(),
	}

	report, err := engine.Validate(context.Background(), artifact)

	var checkErr *validate.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, validate.CheckBoot, checkErr.Check)
	assert.Contains(t, checkErr.Reason, "marker")

	assert.False(t, report.Bootable)
	assert.False(t, report.Functional)
	// The functional probe is never attempted after a failed boot check.
	assert.Len(t, fake.RunArgvs, 1)
}

func TestValidateDockerMissingMember(t *testing.T) {
	cfg := config.Default()
	cfg.Type = config.TypeDocker
	cfg.Compression = config.CompressionNone

	// The bundle carries the wrong member name for its type.
	artifact := packageBundle(t, cfg, map[string]string{
		"bzImage": writeFile(t, "bzImage", 1024),
	})

	engine := &validate.Engine{
		Config:      cfg,
		Containers:  &container.FakeEngine{},
		WorkBaseDir: t.TempDir(),
	}

	report, err := engine.Validate(context.Background(), artifact)

	var checkErr *validate.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, validate.CheckBoot, checkErr.Check)
	assert.Contains(t, checkErr.Reason, "layers.tar")

	assert.True(t, report.SizeOK)
	assert.False(t, report.Bootable)
}

func TestValidateQemuMissingMember(t *testing.T) {
	cfg := config.Default()
	cfg.Compression = config.CompressionNone

	artifact := packageBundle(t, cfg, map[string]string{
		"bzImage": writeFile(t, "bzImage", 1024),
	})

	engine := &validate.Engine{
		Config:      cfg,
		WorkBaseDir: t.TempDir(),
	}

	report, err := engine.Validate(context.Background(), artifact)

	var checkErr *validate.CheckError
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, validate.CheckBoot, checkErr.Check)
	assert.Contains(t, checkErr.Reason, "initramfs.img")

	assert.False(t, report.Bootable)
}
