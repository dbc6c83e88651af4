package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mira-agent/mira/internal/domain"
)

func init() {
	rootCmd.AddCommand(lodCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
}

var lodCmd = &cobra.Command{
	Use:   "lod [level]",
	Short: "Show or set the agent's level of detail",
	Long: `Without arguments, show the current level of detail.
With a level (minimal, low, medium, high, ultra), request it from the
running daemon. The daemon clamps to its configured floor.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLOD,
}

func runLOD(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		var body struct {
			Level string `json:"level"`
		}
		if err := getJSON("/api/lod", &body); err != nil {
			return err
		}
		fmt.Println(body.Level)
		return nil
	}

	// Validate locally for a friendly error before hitting the daemon.
	if _, err := domain.ParseLOD(args[0]); err != nil {
		return err
	}

	var body struct {
		Level string `json:"level"`
	}
	if err := postJSON("/api/lod", map[string]string{"level": args[0]}, &body); err != nil {
		return err
	}
	fmt.Println("LOD set to", body.Level)
	return nil
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the render loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		var state domain.State
		if err := postJSON("/api/pause", nil, &state); err != nil {
			return err
		}
		fmt.Println("Paused. Queue size:", state.QueueSize)
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the render loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		var state domain.State
		if err := postJSON("/api/resume", nil, &state); err != nil {
			return err
		}
		fmt.Println("Resumed at", state.TargetFPS, "FPS")
		return nil
	},
}
