// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package firmware introspects firmware images via the external fwup tool.
//
// Firmware artifacts target real hardware for which no emulation target is
// available, so validation is limited to metadata introspection. This is a
// deliberately weaker guarantee than an actual boot and is reported as
// such, never conflated with a boot success.
package firmware

import (
	"context"
	"fmt"
	"strings"

	"github.com/microbeam/microbeam/internal/tools"
)

// Binary is the firmware tool invoked for introspection.
const Binary = "fwup"

// RequiredKeys are the metadata keys a valid firmware image must carry.
var RequiredKeys = []string{"meta-product", "meta-version"}

// Introspect reads the metadata map of the firmware image at path.
func Introspect(
	ctx context.Context,
	runner tools.Runner,
	path string,
) (map[string]string, error) {
	result, err := runner.Run(ctx, "", Binary, "-m", "-i", path)
	if err != nil {
		return nil, fmt.Errorf("introspect %s: %w", path, err)
	}

	if !result.Successful() {
		return nil, fmt.Errorf(
			"%w: %s", ErrIntrospectFailed, result.Detail(),
		)
	}

	return parseMetadata(result.Stdout), nil
}

// Validate checks that the metadata carries all [RequiredKeys].
func Validate(metadata map[string]string) error {
	var missing []string

	for _, key := range RequiredKeys {
		if metadata[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf(
			"%w: %s", ErrMetadataIncomplete, strings.Join(missing, ", "),
		)
	}

	return nil
}

// parseMetadata parses fwup's key="value" line format.
func parseMetadata(output string) map[string]string {
	metadata := make(map[string]string)

	for _, line := range strings.Split(output, "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found || key == "" {
			continue
		}

		metadata[key] = strings.Trim(value, `"`)
	}

	return metadata
}
