// Package main is the single-binary entrypoint for Mira's render pacing
// daemon and CLI.
package main

import "github.com/mira-agent/mira/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
