package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediarc-hq/mediarc/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file without running anything.

Example:
  mediarc validate --config mediarc.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			return fmt.Errorf("no config file specified (use --config)")
		}
		if _, err := config.LoadWithEnvOverrides(cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
