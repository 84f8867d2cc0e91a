package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search YouTube for videos",
	Example: `  # Find three videos about a topic
  mediafetch search go concurrency patterns

  # Ask for more results
  mediafetch search -n 10 "rust vs go"

  # Find videos related to a saved analysis ([TOPICS]/[SUMMARY] sections)
  mediafetch search --related analysis.txt --title "Original video title"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if related, _ := cmd.Flags().GetString("related"); related != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ensureExtractor(cmd.Context())
		app := internal.NewApp(config)
		defer app.Close()

		maxResults, _ := cmd.Flags().GetInt("max-results")

		var results []internal.SearchResult
		var err error
		if related, _ := cmd.Flags().GetString("related"); related != "" {
			analysis, readErr := readAnalysis(related)
			if readErr != nil {
				return readErr
			}
			title, _ := cmd.Flags().GetString("title")
			var query string
			query, results, err = app.Related(cmd.Context(), analysis, title, maxResults)
			if err == nil && !config.Quiet {
				fmt.Printf("Query: %s\n", query)
			}
		} else {
			results, err = app.Search(cmd.Context(), strings.Join(args, " "), maxResults)
		}
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No videos found")
			return nil
		}

		for i, r := range results {
			fmt.Printf("%d. %s", i+1, r.Title)
			if r.Duration != "" {
				fmt.Printf(" (%s)", r.Duration)
			}
			fmt.Printf("\n   %s\n", r.URL)
		}
		return nil
	},
}

// readAnalysis reads an analysis document from a file, or from stdin for "-"
func readAnalysis(path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading analysis: %w", err)
	}
	return string(data), nil
}

func init() {
	searchCmd.Flags().IntP("max-results", "n", 3, "Maximum number of results")
	searchCmd.Flags().String("related", "", "Search for videos related to an analysis file (- for stdin)")
	searchCmd.Flags().String("title", "", "Video title used when the analysis has no usable topic or summary")
	rootCmd.AddCommand(searchCmd)
}
