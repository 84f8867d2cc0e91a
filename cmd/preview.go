package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview [URL or file...]",
	Short: "Fetch a playable preview video (MP4 preferred)",
	Example: `  # Fetch a preview of a TikTok
  mediafetch preview "https://www.tiktok.com/@user/video/7234567890123456789"

  # Skip the mirror fallback
  mediafetch preview URL --no-mirror`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAcquire(cmd, args, internal.AssetPreview)
	},
}

func init() {
	internal.AddAcquireFlags(previewCmd)
	rootCmd.AddCommand(previewCmd)
}
