package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// cpCmd fetches an asset and copies its path to the system clipboard instead of printing it.
var cpCmd = &cobra.Command{
	Use:   "cp [URL or file]",
	Short: "Fetch an asset and copy the file path to the clipboard",
	Example: `  # Copy the audio path for a video
  mediafetch cp "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Copy the preview path instead
  mediafetch cp URL --kind preview`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.HandleAcquireFlags(cmd, config); err != nil {
			return err
		}
		kindName, _ := cmd.Flags().GetString("kind")
		kind, err := internal.ParseAssetKind(kindName)
		if err != nil {
			return err
		}

		ensureExtractor(cmd.Context())
		app := internal.NewApp(config)
		defer app.Close()

		outcome, err := app.Acquire(cmd.Context(), args[0], kind)
		if err != nil {
			if outcome.Class != internal.ClassNone {
				printFailure(outcome)
			}
			return err
		}

		if err := clipboard.WriteAll(outcome.Path); err != nil {
			return fmt.Errorf("copying path to clipboard: %w", err)
		}

		if !config.Quiet {
			fmt.Printf("Copied %s to clipboard\n", outcome.Path)
		}

		return nil
	},
}

func init() {
	internal.AddAcquireFlags(cpCmd)
	cpCmd.Flags().StringP("kind", "k", "audio", "Asset to fetch: audio or preview")
	rootCmd.AddCommand(cpCmd)
}
