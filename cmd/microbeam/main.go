// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import "github.com/microbeam/microbeam/internal/cli"

func main() {
	cli.Execute()
}
