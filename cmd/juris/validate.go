package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/juris/internal/language"
	"github.com/jackzampolin/juris/internal/output"
	"github.com/jackzampolin/juris/internal/types"
)

var (
	validateLLM    bool
	validateUpdate bool
)

type languageCheck struct {
	File        string  `json:"file"`
	Language    string  `json:"language"`
	WasValid    bool    `json:"wasValid"`
	Valid       bool    `json:"valid"`
	Samples     int     `json:"samples"`
	Matched     int     `json:"matched"`
	Ratio       float64 `json:"ratio"`
	Overridden  bool    `json:"overridden,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

type validateReport struct {
	Checked int             `json:"checked"`
	Valid   int             `json:"valid"`
	Changed int             `json:"changed"`
	Updated bool            `json:"updated"`
	Records []languageCheck `json:"records"`
}

var validateCmd = &cobra.Command{
	Use:   "validate [record...]",
	Short: "Re-run language validation on stored records",
	Long: `Re-run the statistical language check on records in output_dir, either
the named files or every record. With --llm, a record that fails the vote
is sent to the LLM alone and a confident verdict overrides it.

Examples:
  juris validate
  juris validate juportal.be_BE_CASS_2007_ARR.20070622.5_FR.json --llm
  juris validate --llm --update   # Persist changed verdicts`,
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

		lc := language.Config{Logger: a.logger}
		if validateLLM {
			client, err := a.oracle()
			if err != nil {
				return err
			}
			lc.Oracle = client
		}
		validator := language.NewValidator(lc)

		report := validateReport{Updated: validateUpdate, Records: []languageCheck{}}
		check := func(rec *types.Record) error {
			res := validator.Check(ctx, rec)
			row := languageCheck{
				File:       rec.FileName,
				Language:   string(rec.LanguageMetadata),
				WasValid:   rec.IsValid,
				Valid:      res.Valid,
				Samples:    res.Samples,
				Matched:    res.Matched,
				Ratio:      res.Ratio,
				Overridden: res.Overridden,
			}
			if res.Verdict != nil {
				row.Explanation = res.Verdict.Explanation
			}
			report.Checked++
			if res.Valid {
				report.Valid++
			}
			report.Records = append(report.Records, row)

			changed := res.Valid != rec.IsValid
			if changed {
				report.Changed++
			}
			if !validateUpdate || (!changed && res.Verdict == nil) {
				return nil
			}
			rec.IsValid = res.Valid
			if res.Verdict != nil {
				rec.LLMValidation = &types.LLMValidation{
					Validated:   res.Overridden,
					Confidence:  res.Verdict.Confidence,
					Explanation: res.Verdict.Explanation,
				}
			}
			return repo.Save(ctx, rec)
		}

		if len(args) == 0 {
			if _, err := repo.Each(ctx, check); err != nil {
				return err
			}
		}
		for _, name := range args {
			rec, err := repo.Load(ctx, name)
			if err != nil {
				return err
			}
			if err := check(rec); err != nil {
				return err
			}
		}
		return output.Print(format, report)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateLLM, "llm", false, "Ask the LLM about records that fail the statistical vote")
	validateCmd.Flags().BoolVar(&validateUpdate, "update", false, "Write changed verdicts back to the records")

	rootCmd.AddCommand(validateCmd)
}
