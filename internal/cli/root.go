// Package cli implements the Mira command-line interface using Cobra.
// Each subcommand maps to a pipeline capability (serve, run, stats, lod).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mira",
	Short: "Mira — Adaptive render pacing for the desktop agent",
	Long: `Mira paces the animated desktop agent's render work against a per-frame
time budget, adapting refresh rate and level of detail to what the host
can actually sustain.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
