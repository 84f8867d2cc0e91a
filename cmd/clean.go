package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete cached audio and preview files",
	Example: `  # Remove every cached asset after confirming
  mediafetch clean

  # Skip the confirmation
  mediafetch clean --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		defer app.Close()

		assets, err := app.CachedAssets()
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			fmt.Println("Cache is already empty")
			return nil
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !internal.AskUser(fmt.Sprintf("Delete %d cached files from %s?", len(assets), config.AssetsDir)) {
			return nil
		}

		removed, err := app.CleanCache()
		if err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Printf("Removed %d files\n", removed)
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(cleanCmd)
}
