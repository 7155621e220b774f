package main

import (
	"fmt"
	"os"

	"github.com/rpggio/sheetmatch/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheetmatch",
		Short: "Mark patients of a raw sheet that already appear in a previous sheet",
		Long: `sheetmatch compares a raw patient sheet against a previously processed one.
Every raw row whose patient name appears in the previous sheet gets "Done" in a
Status column inserted next to the name column.

Run 'sheetmatch serve' for the browser interface or 'sheetmatch compare' to
annotate files directly.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to a YAML config file (default: $SHEETMATCH_CONFIG_PATH or XDG config dir)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewColumnsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the --config file when given, else the default locations, and
// validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}

	var cfg config.Config
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}
