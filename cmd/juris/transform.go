package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/juris/internal/batch"
	"github.com/jackzampolin/juris/internal/output"
)

var (
	transformClean      bool
	transformPhase1Only bool
	transformWorkers    int
)

// statsView renders durations as text.
type statsView struct {
	batch.Stats
	Saved         int    `json:"saved"`
	TransformTime string `json:"transform_time"`
	CleanupTime   string `json:"cleanup_time"`
	EscalateTime  string `json:"escalate_time"`
}

func viewStats(s batch.Stats) statsView {
	return statsView{
		Stats:         s,
		Saved:         s.Saved(),
		TransformTime: s.TransformTime.Round(time.Millisecond).String(),
		CleanupTime:   s.CleanupTime.Round(time.Millisecond).String(),
		EscalateTime:  s.EscalateTime.Round(time.Millisecond).String(),
	}
}

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform the raw corpus and run the batch pipeline",
	Long: `Transform every raw document in input_dir into a canonical record in
output_dir, then run the corpus passes:

  1.   transform (statistical language validation only)
  1.5  ECLI alias dedup and excluded-language strip
  2.   LLM escalation of invalid records in batches
  3.   missing-date audit

Conclusions (CONC) are transformed but never written.

Examples:
  juris transform                 # Full pipeline
  juris transform --clean         # Empty output_dir first
  juris transform --phase1-only   # Transform without corpus passes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp()
		if err != nil {
			return err
		}

		client := a.optionalOracle()
		r, err := a.runner(runnerOptions{clean: transformClean, workers: transformWorkers, oracle: client})
		if err != nil {
			return err
		}

		if transformPhase1Only {
			var stats batch.Stats
			if err := r.TransformAll(ctx, &stats); err != nil {
				return err
			}
			return output.Print(format, viewStats(stats))
		}

		stats, err := r.Run(ctx)
		if err != nil {
			return err
		}
		return output.Print(format, viewStats(stats))
	},
}

func init() {
	transformCmd.Flags().BoolVar(&transformClean, "clean", false, "Remove everything in output_dir before transforming")
	transformCmd.Flags().BoolVar(&transformPhase1Only, "phase1-only", false, "Only transform; skip dedup, strip, escalation and audit")
	transformCmd.Flags().IntVar(&transformWorkers, "workers", 0, "Transform workers (overrides config)")

	rootCmd.AddCommand(transformCmd)
}
