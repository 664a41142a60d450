package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/juris/internal/output"
	"github.com/jackzampolin/juris/version"
)

var (
	cfgFile      string
	homeDir      string
	logLevel     string
	outputFormat string
	format       output.Format
)

var rootCmd = &cobra.Command{
	Use:   "juris",
	Short: "Transform Juportal court decisions into validated canonical records",
	Long: `Juris turns raw Juportal decision pages into canonical JSON records.

The batch pipeline includes:
  - Section-driven transformation of decision cards, notices and full text
  - ECLI alias deduplication and excluded-language removal
  - Statistical language validation with LLM escalation in batches
  - Reports of still-invalid records and records missing a full date`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.juris/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "juris home directory (default: ~/.juris)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (default: log_level from config)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Validate output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		f, err := output.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		format = f
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}
