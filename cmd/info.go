package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info [URL or file]",
	Short: "Show video metadata without downloading media",
	Example: `  # Show metadata for a video
  mediafetch info "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Save metadata as JSON
  mediafetch info URL --json -o info.json

  # Format output as pretty JSON
  mediafetch info URL --json --pretty

  # Print a link that starts playback at 1m23s
  mediafetch info URL --at 01:23`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetString("at")
		startAt := -1.0
		if at != "" {
			seconds, ok := internal.ParseTimestamp(at)
			if !ok {
				return fmt.Errorf("invalid timestamp %q (expected HH:MM:SS or MM:SS)", at)
			}
			startAt = seconds
		}

		ensureExtractor(cmd.Context())
		app := internal.NewApp(config)
		defer app.Close()

		info, err := app.Info(cmd.Context(), args[0])
		if err != nil {
			var outcomeErr *internal.OutcomeError
			if errors.As(err, &outcomeErr) && outcomeErr.Hint != "" {
				fmt.Fprintf(os.Stderr, "Hint: %s\n", outcomeErr.Hint)
			}
			return err
		}

		if startAt >= 0 {
			link := info.WebpageURL
			if link == "" {
				link = args[0]
			}
			info.WebpageURL = internal.URLWithTimestamp(link, startAt, false)
		}

		var output []byte
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			pretty, _ := cmd.Flags().GetBool("pretty")
			if pretty {
				output, err = json.MarshalIndent(info, "", "  ")
			} else {
				output, err = json.Marshal(info)
			}
			if err != nil {
				return fmt.Errorf("error converting metadata to JSON: %w", err)
			}
		} else {
			output = []byte(internal.FormatVideoInfo(info))
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			return os.WriteFile(outputFile, output, 0644)
		}

		fmt.Println(string(output))
		return nil
	},
}

func init() {
	infoCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	infoCmd.Flags().Bool("json", false, "Print metadata as JSON")
	infoCmd.Flags().Bool("pretty", false, "Format JSON output with indentation")
	infoCmd.Flags().String("at", "", "Rewrite the link to start playback at this timestamp (YouTube only)")
	rootCmd.AddCommand(infoCmd)
}
