package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/juris/internal/output"
	"github.com/jackzampolin/juris/internal/transfer"
)

var (
	syncPrefix   string
	syncParallel int
	syncRetries  int
	syncDryRun   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download raw documents from the bucket into input_dir",
	Long: `Download every .json object under the bucket prefix that input_dir does
not hold yet. Existing local files are never overwritten.

Examples:
  juris sync --dry-run
  juris sync --prefix raw/2024 --parallel 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp()
		if err != nil {
			return err
		}
		remote, err := a.bucket(ctx, syncPrefix)
		if err != nil {
			return err
		}
		local, err := a.input()
		if err != nil {
			return err
		}

		result, err := transfer.Sync(ctx, transfer.SyncConfig{
			Source:   remote,
			Dest:     local,
			Parallel: syncParallel,
			Retries:  syncRetries,
			DryRun:   syncDryRun,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
		return output.Print(format, result)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncPrefix, "prefix", "", "Bucket prefix to read (default: s3.prefix)")
	syncCmd.Flags().IntVar(&syncParallel, "parallel", transfer.DefaultParallel, "Concurrent downloads")
	syncCmd.Flags().IntVar(&syncRetries, "retries", transfer.DefaultRetries, "Retries per file")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "List missing files without downloading")

	rootCmd.AddCommand(syncCmd)
}
