// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package estimate implements the heuristic size cost model predicting the
// output image size before any build runs.
//
// The cost tables are static constants, not empirically calibrated for all
// strategies. Treat the output as a heuristic requiring calibration against
// real measurements, not as ground truth.
package estimate

import (
	"fmt"

	"github.com/microbeam/microbeam/internal/config"
	"github.com/microbeam/microbeam/internal/strip"
)

const (
	kernelMB          = 2
	initMB            = 1
	strippedRuntimeMB = 8
	fullRuntimeMB     = 18

	// spreadMB widens the point estimate into a range, expressing the
	// uncertainty of the table based model.
	spreadMB = 5

	appOverheadMB = 3
	packageMB     = 2

	// defaultComponentMB is charged for retained components missing from
	// the cost table. Unknown components are never silently free.
	defaultComponentMB = 1
)

// componentMB holds the marginal cost of retaining an optional component.
var componentMB = map[strip.Component]int{
	"inets":         2,
	"mnesia":        2,
	"observer":      3,
	"parsetools":    1,
	"public_key":    1,
	"runtime_tools": 1,
	"snmp":          2,
	"ssh":           2,
	"ssl":           2,
	"tools":         1,
	"xmerl":         1,
}

// Range is a size estimate in MB. Low is never greater than High and both
// bounds are never negative.
type Range struct {
	LowMB  int
	HighMB int
}

// String renders the range the way it is reported to users, e.g. "11-16MB".
func (r Range) String() string {
	return fmt.Sprintf("%d-%dMB", r.LowMB, r.HighMB)
}

// Size predicts the output size for the given config and retention
// decision.
//
// The model is monotonic: retaining an additional component never decreases
// either bound, removing one never increases either bound.
func Size(cfg config.Config, decision strip.Decision) Range {
	low := kernelMB + initMB

	if cfg.StripModules {
		low += strippedRuntimeMB
	} else {
		low += fullRuntimeMB
	}

	for _, component := range decision.Retained {
		cost, known := componentMB[component]
		if !known {
			cost = defaultComponentMB
		}

		low += cost
	}

	low += len(cfg.Packages) * packageMB

	if cfg.AppPath != "" {
		low += appOverheadMB
	}

	return Range{
		LowMB:  low,
		HighMB: low + spreadMB,
	}
}
