// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ImageType selects the build strategy. The set is closed; anything else is
// rejected by [Config.Validate].
type ImageType string

const (
	TypeDocker    ImageType = "docker"
	TypeCustom    ImageType = "custom"
	TypeBuildroot ImageType = "buildroot"
	TypeFirmware  ImageType = "firmware"
)

// ImageTypes returns all supported image types.
func ImageTypes() []ImageType {
	return []ImageType{TypeDocker, TypeCustom, TypeBuildroot, TypeFirmware}
}

func (t ImageType) String() string {
	return string(t)
}

func (t ImageType) isKnown() bool {
	switch t {
	case TypeDocker, TypeCustom, TypeBuildroot, TypeFirmware:
		return true
	default:
		return false
	}
}

// Compression selects the compression method for initramfs archives and the
// final bundle. It trades build time against final size: xz compresses best
// but slowest, gzip is faster, none is instant.
type Compression string

const (
	CompressionXZ   Compression = "xz"
	CompressionGzip Compression = "gzip"
	CompressionNone Compression = "none"
)

func (c Compression) String() string {
	return string(c)
}

// Ext returns the file name extension for bundles compressed with c,
// including the leading dot. It is empty for [CompressionNone].
func (c Compression) Ext() string {
	switch c {
	case CompressionXZ:
		return ".xz"
	case CompressionGzip:
		return ".gz"
	default:
		return ""
	}
}

func (c Compression) isKnown() bool {
	switch c {
	case CompressionXZ, CompressionGzip, CompressionNone:
		return true
	default:
		return false
	}
}

// Config is the immutable input for a single build invocation.
type Config struct {
	// Type selects the build strategy.
	Type ImageType `mapstructure:"type"`

	// TargetSizeMB is the aspirational size of the final image in MB. It
	// is used for size estimation and the soft size check during
	// validation, not as a hard constraint.
	TargetSizeMB int `mapstructure:"target_size"`

	// AppPath points to a compiled application release to install into
	// the image. If empty, the image boots into an interactive runtime
	// shell.
	AppPath string `mapstructure:"app_path"`

	// AppDeps lists OTP applications the application release depends on.
	// Declared dependencies are never stripped, regardless of the
	// retention flags.
	AppDeps []string `mapstructure:"app_deps"`

	// Packages lists extra dependencies to install into the image.
	Packages []string `mapstructure:"packages"`

	// StripModules enables the component retention policy. If false, the
	// full runtime distribution is kept.
	StripModules bool `mapstructure:"strip_modules"`

	// Keep lists retention flags for conditional components, such as
	// "ssh" or "mnesia". Unknown flags are ignored.
	Keep []string `mapstructure:"keep"`

	// Compression for the initramfs archive and the final bundle.
	Compression Compression `mapstructure:"compression"`

	// VMOptions carries strategy specific tuning options, such as
	// "no-net" to drop network device support from the kernel profile.
	VMOptions map[string]string `mapstructure:"vm_options"`
}

// Default returns a [Config] with the default values set.
func Default() Config {
	return Config{
		Type:         TypeCustom,
		TargetSizeMB: 20,
		StripModules: true,
		Compression:  CompressionXZ,
	}
}

// FromViper reads a [Config] from the given viper instance, applying
// defaults for unset keys, and validates it.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Default()

	err := v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the config invariants. It is run before any work begins so
// misconfiguration never reaches a build pipeline.
func (c Config) Validate() error {
	if !c.Type.isKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownImageType, c.Type)
	}

	if c.TargetSizeMB <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTargetSize, c.TargetSizeMB)
	}

	if !c.Compression.isKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownCompression, c.Compression)
	}

	if c.AppPath != "" {
		_, err := os.Stat(c.AppPath)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAppPathNotFound, c.AppPath, err)
		}
	}

	return nil
}
