package main

import (
	"os"

	"github.com/spf13/cobra"

	"mediarc-hq/mediarc/pkg/cli"
	"mediarc-hq/mediarc/pkg/config"
	"mediarc-hq/mediarc/pkg/history"
)

var historyFlags struct {
	journalPath string
	limit       int
	output      string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs from the journal",
	Long: `List past runs recorded in the run journal, newest first.

The journal location comes from the config file (journal.path) or the
--journal flag.

Examples:
  mediarc history --limit 10
  mediarc history --journal mediarc-history.db --output json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.journalPath, "journal", "", "journal database path")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "maximum number of runs to show")
	historyCmd.Flags().StringVar(&historyFlags.output, "output", "text", "output format (text, json)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}
	if historyFlags.journalPath != "" {
		cfg.Journal.Path = historyFlags.journalPath
	}

	journal, err := history.Open(cfg.Journal)
	if err != nil {
		return err
	}
	defer journal.Close()

	reports, err := journal.List(cmd.Context(), historyFlags.limit)
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(cli.OutputFormat(historyFlags.output))
	return formatter.FormatTo(os.Stdout, reports)
}
