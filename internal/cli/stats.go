package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mira-agent/mira/internal/daemon"
	"github.com/mira-agent/mira/internal/domain"
	"github.com/mira-agent/mira/internal/infra/sqlite"
)

func init() {
	statsCmd.Flags().BoolVar(&statsLive, "live", false, "Query the running daemon instead of session history")
	rootCmd.AddCommand(statsCmd)
}

var statsLive bool

var statsCmd = &cobra.Command{
	Use:   "stats [session-id]",
	Short: "Show pacing statistics",
	Long: `Without arguments, list recent sessions from the local history.
With a session id, show that session's periodic samples.
With --live, show the running daemon's current counters.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsLive {
		return showLiveStats()
	}

	db, err := sqlite.Open(daemon.MiraHome())
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		return showSamples(db, args[0])
	}
	return listSessions(db)
}

func showLiveStats() error {
	var stats struct {
		domain.PipelineMetrics
		Judder domain.JudderMetrics `json:"judder"`
	}
	if err := getJSON("/api/stats", &stats); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Frames rendered\t%d\n", stats.FramesRendered)
	fmt.Fprintf(w, "Frames dropped\t%d (%.1f%%)\n", stats.FramesDropped, stats.FrameDropRate*100)
	fmt.Fprintf(w, "Frame time\tavg %.2fms  p95 %.2fms  p99 %.2fms\n",
		stats.AvgFrameTimeMs, stats.P95FrameTimeMs, stats.P99FrameTimeMs)
	fmt.Fprintf(w, "Budget overruns\t%d\n", stats.BudgetOverruns)
	fmt.Fprintf(w, "Judder score\t%.3f\n", stats.Judder.Score)
	fmt.Fprintf(w, "Tasks\t%d executed, %d skipped, %d errors\n",
		stats.PassExecutions, stats.PassSkips, stats.TaskErrors)
	fmt.Fprintf(w, "LOD\t%s (%d changes)\n", stats.CurrentLOD, stats.LODChanges)
	return w.Flush()
}

func listSessions(db *sqlite.DB) error {
	sessions, err := db.ListSessions(20)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tFRAMES\tDROPPED\tP95 MS\tLOD")
	for _, s := range sessions {
		duration := "running"
		if !s.EndedAt.IsZero() {
			duration = s.EndedAt.Sub(s.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\t%s\n",
			shortID(s.ID),
			s.StartedAt.Format("Jan 02 15:04"),
			duration,
			s.FramesRendered,
			s.FramesDropped,
			s.P95FrameMs,
			s.FinalLOD,
		)
	}
	return w.Flush()
}

func showSamples(db *sqlite.DB, id string) error {
	samples, err := db.SamplesForSession(id)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Println("No samples for session", id)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tFPS\tP95 MS\tJUDDER\tLOD\tQUEUE\tTHROTTLED")
	for _, s := range samples {
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.3f\t%s\t%d\t%v\n",
			s.At.Format("15:04:05"),
			s.FPS,
			s.P95FrameMs,
			s.JudderScore,
			s.LOD,
			s.QueueDepth,
			s.Throttled,
		)
	}
	return w.Flush()
}

// shortID truncates a UUID for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
