package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// diagnoseCmd represents the diagnose command
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [URL]",
	Short: "Probe a URL with every browser fingerprint and report what works",
	Example: `  # Find out why a TikTok keeps failing
  mediafetch diagnose "https://www.tiktok.com/@user/video/7234567890123456789"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureExtractor(cmd.Context())
		app := internal.NewApp(config)
		defer app.Close()

		report, err := app.Diagnose(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			fmt.Print(report)
			return nil
		}

		rendered, err := internal.RenderMarkdown(report)
		if err != nil {
			fmt.Print(report)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().Bool("raw", false, "Print the report as plain markdown")
	rootCmd.AddCommand(diagnoseCmd)
}
