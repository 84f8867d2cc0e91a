package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddAcquireFlags adds flags shared by commands that fetch assets
func AddAcquireFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", 0, "Concurrent downloads when several URLs are given (default from config)")
	cmd.Flags().Bool("no-mirror", false, "Never fall back to the third-party mirror")
	cmd.Flags().Bool("json", false, "Print outcomes as JSON")
}

// HandleAcquireFlags applies acquisition flags to the configuration
func HandleAcquireFlags(cmd *cobra.Command, config *Config) error {
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return fmt.Errorf("failed to get workers flag: %w", err)
	}
	if workers < 0 {
		return fmt.Errorf("--workers must be positive, got %d", workers)
	}
	if workers > 0 {
		config.Workers = workers
	}

	noMirror, err := cmd.Flags().GetBool("no-mirror")
	if err != nil {
		return fmt.Errorf("failed to get no-mirror flag: %w", err)
	}
	if noMirror {
		config.MirrorEnabled = false
	}
	return nil
}

// HandleVerboseFlag processes the --verbose and --quiet flags to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}
		config.Verbose = verbose
	}
	if f := cmd.Flags().Lookup("quiet"); f != nil && f.Changed {
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		config.Quiet = quiet
	}
	if config.Verbose && config.Quiet {
		return fmt.Errorf("--verbose and --quiet cannot be combined")
	}
	return nil
}
