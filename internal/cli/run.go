package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mira-agent/mira/internal/daemon"
	"github.com/mira-agent/mira/internal/domain"
	"github.com/mira-agent/mira/internal/pipeline"
)

func init() {
	runCmd.Flags().DurationVar(&runDuration, "duration", 5*time.Second, "How long to run the workload")
	runCmd.Flags().Float64Var(&runLoad, "load", 1.0, "Synthetic work per frame as a fraction of the budget")
	runCmd.Flags().IntVar(&runFPS, "fps", 0, "Target FPS (overrides config)")
	rootCmd.AddCommand(runCmd)
}

var (
	runDuration time.Duration
	runLoad     float64
	runFPS      int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic workload and report pacing behavior",
	Long: `Run the pacing engine headless for a fixed duration, feeding it
synthetic render work, then print what the adaptation did.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	engineCfg := cfg.Pipeline.EngineConfig()
	if runFPS > 0 {
		engineCfg.TargetFPS = runFPS
	}

	var throttleEvents, lodEvents int
	source := pipeline.NewTickerSource(time.Second / time.Duration(engineCfg.TargetFPS))
	defer source.Close()

	engine := pipeline.NewEngine(engineCfg, source, pipeline.Hooks{
		ThrottleChanged: func(bool) { throttleEvents++ },
		LODChanged:      func(_, _ domain.LODLevel) { lodEvents++ },
	})

	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	// Feed synthetic work: each batch spreads the requested load across
	// the priority classes so admission has real choices to make.
	busy := time.Duration(runLoad * float64(engineCfg.Budget) / 4)
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(engineCfg.TargetFPS))
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				for p := domain.PriorityCritical; p <= domain.PriorityDeferred; p++ {
					engine.ScheduleRenderWork("", func() error {
						spin(busy)
						return nil
					}, p, busy)
				}
			}
		}
	}()

	fmt.Printf("Running %.0f%% load at %d FPS for %s...\n", runLoad*100, engineCfg.TargetFPS, runDuration)
	time.Sleep(runDuration)
	close(stop)

	state := engine.State()
	pm := engine.Metrics()
	jm := engine.Judder()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Frames rendered\t%d\n", pm.FramesRendered)
	fmt.Fprintf(w, "Frames dropped\t%d (%.1f%%)\n", pm.FramesDropped, pm.FrameDropRate*100)
	fmt.Fprintf(w, "Achieved FPS\t%.1f (target %d)\n", state.CurrentFPS, state.TargetFPS)
	fmt.Fprintf(w, "Frame time\tavg %.2fms  p95 %.2fms  p99 %.2fms\n", pm.AvgFrameTimeMs, pm.P95FrameTimeMs, pm.P99FrameTimeMs)
	fmt.Fprintf(w, "Budget overruns\t%d\n", pm.BudgetOverruns)
	fmt.Fprintf(w, "Judder score\t%.3f\n", jm.Score)
	fmt.Fprintf(w, "Tasks\t%d executed, %d skipped, %d errors\n", pm.PassExecutions, pm.PassSkips, pm.TaskErrors)
	fmt.Fprintf(w, "LOD\t%s (%d changes)\n", pm.CurrentLOD, lodEvents)
	fmt.Fprintf(w, "Throttle events\t%d\n", throttleEvents)
	return w.Flush()
}

// spin busy-waits to simulate render work; sleeping would under-report
// budget use on coarse timers.
func spin(d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
