// SPDX-License-Identifier: EPL-2.0

// Command multitrack plays, records and mixes multi-track projects.
package main

import "github.com/ik5/multitrack/internal/cli"

func main() {
	cli.Execute()
}
