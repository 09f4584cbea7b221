// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package strip implements the component retention policy deciding which
// optional runtime subsystems are removed from the image.
//
// The policy is a pure function over three static tables: an always-remove
// set, a flag-gated conditional set and a protected set that no
// configuration can override.
package strip

import (
	"slices"

	"github.com/rs/zerolog/log"
)

// Decision partitions the known components into the protected set, the
// retained optionals and the removed ones. It is derived, never stored.
type Decision struct {
	// Required is the protected set, always retained.
	Required []Component

	// Retained lists optional components that survive due to a retention
	// flag or a declared application dependency.
	Retained []Component

	// Removed lists components to delete from the image, sorted.
	Removed []Component
}

// Removes reports whether the decision removes the given component.
func (d Decision) Removes(component Component) bool {
	return slices.Contains(d.Removed, component)
}

// Retains reports whether the decision keeps the given optional component.
func (d Decision) Retains(component Component) bool {
	return slices.Contains(d.Retained, component)
}

// Decide computes the retention decision for the given retention flags and
// declared application dependencies.
//
// Unknown flags are ignored, not fatal. A declared application dependency on
// a component the policy would remove promotes that component to retained
// with a warning; silently dropping a declared dependency would break the
// application at runtime.
func Decide(keep []string, appDeps []string) Decision {
	removed := make(map[Component]bool, len(alwaysRemove))
	for _, component := range alwaysRemove {
		removed[component] = true
	}

	var retained []Component

	for flag, components := range conditional {
		if slices.Contains(keep, flag) {
			retained = append(retained, components...)
			continue
		}

		for _, component := range components {
			removed[component] = true
		}
	}

	for _, flag := range keep {
		if _, known := conditional[flag]; !known {
			log.Debug().
				Str("flag", flag).
				Msg("Ignoring unknown retention flag")
		}
	}

	for _, dep := range appDeps {
		component := Component(dep)
		if !removed[component] {
			continue
		}

		delete(removed, component)
		retained = append(retained, component)

		log.Warn().
			Str("component", dep).
			Msg("Retaining stripped component required by application")
	}

	// The protected set wins over everything, including the static
	// always-remove table.
	for _, component := range protected {
		delete(removed, component)
	}

	removedList := make([]Component, 0, len(removed))
	for component := range removed {
		removedList = append(removedList, component)
	}

	slices.Sort(removedList)
	slices.Sort(retained)

	return Decision{
		Required: Protected(),
		Retained: slices.Compact(retained),
		Removed:  removedList,
	}
}
