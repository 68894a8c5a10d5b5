package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "mediarc",
	Short: "mediarc - media folder archiver and reconciler",
	Long: `mediarc backs up a phone-resident media folder (e.g. a WhatsApp folder)
into an archive folder and keeps the source under a size budget.

Every run copies files missing from the archive first; only then may files
be deleted from the source, so an interrupted run never loses data that was
not already archived. Trimming order is configurable: keep the newest
history, keep the most files, or a balance of both.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
