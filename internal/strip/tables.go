// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package strip

// Component is the name of an OTP application in the runtime distribution.
type Component string

// alwaysRemove lists components with no core runtime dependency: GUI
// bindings, legacy protocol stacks, debugging and documentation tooling.
// They are removed whenever stripping is enabled.
var alwaysRemove = []Component{
	"common_test",
	"debugger",
	"dialyzer",
	"diameter",
	"edoc",
	"erl_docgen",
	"et",
	"eunit",
	"ftp",
	"jinterface",
	"megaco",
	"observer",
	"odbc",
	"reltool",
	"tftp",
	"wx",
}

// conditional maps a retention flag to the components it keeps. Components
// listed here are removed unless their flag is set or an application
// dependency forces retention.
var conditional = map[string][]Component{
	"ssh":       {"ssh"},
	"ssl":       {"ssl", "public_key"},
	"http":      {"inets"},
	"mnesia":    {"mnesia"},
	"snmp":      {"snmp"},
	"xml":       {"xmerl"},
	"dev-tools": {"tools", "runtime_tools", "parsetools"},
}

// protected lists components that no configuration can remove. The runtime
// does not start without them.
var protected = []Component{
	"compiler",
	"crypto",
	"erts",
	"kernel",
	"sasl",
	"stdlib",
}

// Protected returns the fixed set of components that survive every
// retention decision.
func Protected() []Component {
	result := make([]Component, len(protected))
	copy(result, protected)

	return result
}

// AlwaysRemoved returns the fixed set of components removed whenever
// stripping is enabled.
func AlwaysRemoved() []Component {
	result := make([]Component, len(alwaysRemove))
	copy(result, alwaysRemove)

	return result
}

// RetentionFlags returns the known retention flag names.
func RetentionFlags() []string {
	flags := make([]string, 0, len(conditional))
	for flag := range conditional {
		flags = append(flags, flag)
	}

	return flags
}
