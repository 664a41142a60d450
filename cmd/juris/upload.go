package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/juris/internal/output"
	"github.com/jackzampolin/juris/internal/transfer"
)

var (
	uploadPrefix    string
	uploadBatchSize int
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload valid records to the bucket as zip archives",
	Long: `Package every valid record of output_dir that is not in the excluded
language into zip archives of upload.batch_size records and upload them
under the bucket prefix as juportal_valid_batch_NNNN.zip.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := loadApp()
		if err != nil {
			return err
		}
		repo, err := a.records()
		if err != nil {
			return err
		}
		remote, err := a.bucket(ctx, uploadPrefix)
		if err != nil {
			return err
		}
		batchSize := a.cfg.Upload.BatchSize
		if uploadBatchSize > 0 {
			batchSize = uploadBatchSize
		}

		result, err := transfer.Upload(ctx, transfer.UploadConfig{
			Records:          repo,
			Target:           remote,
			ExcludedLanguage: a.excluded(),
			BatchSize:        batchSize,
			Logger:           a.logger,
		})
		if err != nil {
			return err
		}
		return output.Print(format, result)
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadPrefix, "prefix", "", "Bucket prefix to write (default: s3.prefix)")
	uploadCmd.Flags().IntVar(&uploadBatchSize, "batch-size", 0, "Records per archive (default: upload.batch_size)")

	rootCmd.AddCommand(uploadCmd)
}
