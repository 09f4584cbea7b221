// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package estimate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/estimate"
	"github.com/microbeam/microbeam/internal/strip"
)

func strippedConfig() config.Config {
	cfg := config.Default()
	cfg.Type = config.TypeCustom
	cfg.TargetSizeMB = 20
	cfg.StripModules = true

	return cfg
}

func TestSizeStrippedBaseline(t *testing.T) {
	// kernel(2) + init(1) + stripped runtime(8) = 11, +5 spread.
	r := estimate.Size(strippedConfig(), strip.Decide(nil, nil))

	assert.Equal(t, "11-16MB", r.String())
}

func TestSizeWithApp(t *testing.T) {
	appPath := filepath.Join(t.TempDir(), "app")
	require.NoError(t, os.WriteFile(appPath, []byte("release"), 0o755))

	cfg := strippedConfig()
	cfg.AppPath = appPath

	r := estimate.Size(cfg, strip.Decide(nil, nil))

	assert.Equal(t, "14-19MB", r.String())
}

func TestSizeBoundsOrdered(t *testing.T) {
	configs := []config.Config{
		strippedConfig(),
		{Type: config.TypeDocker, TargetSizeMB: 50, Compression: config.CompressionGzip},
		{Type: config.TypeCustom, TargetSizeMB: 1, StripModules: false, Compression: config.CompressionNone},
	}

	for _, cfg := range configs {
		r := estimate.Size(cfg, strip.Decide(cfg.Keep, cfg.AppDeps))

		assert.LessOrEqual(t, r.LowMB, r.HighMB)
		assert.GreaterOrEqual(t, r.LowMB, 0)
	}
}

func TestSizeMonotonicInRetainedComponents(t *testing.T) {
	cfg := strippedConfig()

	base := estimate.Size(cfg, strip.Decide(nil, nil))
	more := estimate.Size(cfg, strip.Decide([]string{"ssh"}, nil))
	most := estimate.Size(cfg, strip.Decide([]string{"ssh", "ssl", "mnesia"}, nil))

	assert.GreaterOrEqual(t, more.LowMB, base.LowMB)
	assert.GreaterOrEqual(t, more.HighMB, base.HighMB)
	assert.GreaterOrEqual(t, most.LowMB, more.LowMB)
	assert.GreaterOrEqual(t, most.HighMB, more.HighMB)
}

func TestSizeUnknownComponentNotFree(t *testing.T) {
	cfg := strippedConfig()

	base := estimate.Size(cfg, strip.Decision{})
	unknown := estimate.Size(cfg, strip.Decision{
		Retained: []strip.Component{"left_pad"},
	})

	assert.Greater(t, unknown.LowMB, base.LowMB)
}

func TestSizePackages(t *testing.T) {
	cfg := strippedConfig()
	cfg.Packages = []string{"libsodium", "sqlite"}

	base := estimate.Size(strippedConfig(), strip.Decision{})
	withPackages := estimate.Size(cfg, strip.Decision{})

	assert.Equal(t, base.LowMB+4, withPackages.LowMB)
	assert.Equal(t, base.HighMB+4, withPackages.HighMB)
}

func TestSizeUnstrippedLarger(t *testing.T) {
	stripped := estimate.Size(strippedConfig(), strip.Decision{})

	cfg := strippedConfig()
	cfg.StripModules = false
	full := estimate.Size(cfg, strip.Decision{})

	assert.Greater(t, full.LowMB, stripped.LowMB)
}
