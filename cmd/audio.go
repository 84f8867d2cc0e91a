package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// audioCmd represents the audio command
var audioCmd = &cobra.Command{
	Use:   "audio [URL or file...]",
	Short: "Fetch audio as a 16 kHz mono WAV",
	Example: `  # Fetch audio for a video
  mediafetch audio "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Fetch a batch with ten workers and print JSON
  mediafetch audio URL1 URL2 URL3 -w 10 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAcquire(cmd, args, internal.AssetAudio)
	},
}

func init() {
	internal.AddAcquireFlags(audioCmd)
	rootCmd.AddCommand(audioCmd)
}
