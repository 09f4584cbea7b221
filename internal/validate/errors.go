// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package validate

import "fmt"

// Check names as they appear in [CheckError] and log output.
const (
	CheckExists     = "exists"
	CheckSize       = "size"
	CheckBoot       = "boot"
	CheckFunctional = "functional"
)

// CheckError identifies the validation check that failed. The run stops at
// the first failing check; the partial [Report] is returned alongside.
type CheckError struct {
	Check  string
	Reason string
	Err    error
}

func (e *CheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s check failed: %s: %v", e.Check, e.Reason, e.Err)
	}

	return fmt.Sprintf("%s check failed: %s", e.Check, e.Reason)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}
