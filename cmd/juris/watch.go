package main

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/juris/internal/batch"
	"github.com/jackzampolin/juris/internal/config"
)

var watchDebounce time.Duration

var errSameDirs = errors.New("input_dir and output_dir must differ in watch mode")

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Transform raw documents as they land in input_dir",
	Long: `Watch input_dir and transform each raw document once it has been quiet
for the debounce interval. Only the transform phase runs; use
"juris transform" or the individual corpus commands for dedup, strip and
escalation.

The config file is watched too: a change to log_level takes effect
without a restart. Press Ctrl+C to stop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		in, err := filepath.Abs(a.cfg.InputDir)
		if err != nil {
			return err
		}
		out, err := filepath.Abs(a.cfg.OutputDir)
		if err != nil {
			return err
		}
		if in == out {
			return errSameDirs
		}

		r, err := a.runner(runnerOptions{oracle: a.optionalOracle()})
		if err != nil {
			return err
		}

		a.config.OnChange(func(cfg *config.Config) {
			if logLevel == "" {
				a.level.Set(parseLevel(cfg.LogLevel))
			}
			a.logger.Info("config changed", "log_level", cfg.LogLevel)
		})
		if a.config.ConfigFile() != "" {
			a.config.WatchConfig()
		}

		var handled, failed int
		err = r.Watch(cmd.Context(), watchDebounce, func(ev batch.WatchEvent) {
			handled++
			if ev.Err != nil {
				failed++
			}
		})
		a.logger.Info("watch summary", "handled", handled, "failed", failed)
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", batch.DefaultDebounce, "Quiet period before a file is transformed")

	rootCmd.AddCommand(watchCmd)
}
