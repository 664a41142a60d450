package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/juris/internal/batch"
	"github.com/jackzampolin/juris/internal/corpus"
	"github.com/jackzampolin/juris/internal/output"
	"github.com/jackzampolin/juris/internal/types"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Remove records that another record declares as its ECLI alias",
	Long: `Scan output_dir in file name order and delete every record whose
decisionId is listed as an ECLI alias of a record kept earlier. When two
records alias each other, the one with the smaller decisionId is kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		repo, err := a.records()
		if err != nil {
			return err
		}
		result, err := repo.Dedup(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(format, result)
	},
}

var stripLanguage string

var stripCmd = &cobra.Command{
	Use:   "strip",
	Short: "Remove every record declared in the excluded language",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		lang := a.excluded()
		if stripLanguage != "" {
			l, ok := types.ParseLanguage(stripLanguage)
			if !ok {
				return fmt.Errorf("unknown language %q (want FR, NL or DE)", stripLanguage)
			}
			lang = l
		}
		if lang == "" {
			return fmt.Errorf("no language to strip: set excluded_language or --language")
		}
		repo, err := a.records()
		if err != nil {
			return err
		}
		result, err := repo.StripLanguage(cmd.Context(), lang)
		if err != nil {
			return err
		}
		return output.Print(format, result)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report valid records without a full decision date",
	Long: `Write missing_dates.json to output_dir listing every valid record whose
decisionDate is not a full YYYY-MM-DD date. A stale report is removed when
every date is complete.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		repo, err := a.records()
		if err != nil {
			return err
		}
		result, err := repo.AuditMissingDates(cmd.Context())
		if err != nil {
			return err
		}
		return output.Print(format, result)
	},
}

var escalateCmd = &cobra.Command{
	Use:   "escalate",
	Short: "Send invalid records to the LLM in batches",
	Long: `Collect every record in output_dir with isValid=false and ask the LLM
for a language verdict in batches of oracle.batch_size, with at most
oracle.max_concurrent batches in flight. Records still invalid afterwards
are listed in invalid_files.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		client, err := a.oracle()
		if err != nil {
			return err
		}
		r, err := a.runner(runnerOptions{oracle: client})
		if err != nil {
			return err
		}
		var stats batch.Stats
		if err := r.Escalate(cmd.Context(), &stats); err != nil {
			return err
		}
		return output.Print(format, viewStats(stats))
	},
}

var keywordsOut string

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Export distinct cassation and UTU keywords as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		repo, err := a.records()
		if err != nil {
			return err
		}
		rows, err := repo.Keywords(cmd.Context())
		if err != nil {
			return err
		}

		if keywordsOut == "" || keywordsOut == "-" {
			return corpus.WriteKeywordsCSV(os.Stdout, rows)
		}
		f, err := os.Create(keywordsOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", keywordsOut, err)
		}
		if err := corpus.WriteKeywordsCSV(f, rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		a.logger.Info("keywords exported", "file", keywordsOut, "rows", len(rows))
		return nil
	},
}

func init() {
	stripCmd.Flags().StringVar(&stripLanguage, "language", "", "Language to strip (default: excluded_language)")
	keywordsCmd.Flags().StringVar(&keywordsOut, "out", "", "CSV file to write (default: stdout)")

	rootCmd.AddCommand(dedupCmd)
	rootCmd.AddCommand(stripCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(escalateCmd)
	rootCmd.AddCommand(keywordsCmd)
}
