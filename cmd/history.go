package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent acquisitions and today's usage",
	Example: `  # Show the last 20 acquisitions
  mediafetch history

  # Show the last 5
  mediafetch history -n 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		defer app.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := app.History(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No acquisitions yet")
		} else {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tKIND\tRESULT\tATTEMPTS\tURL")
			for _, e := range entries {
				result := "ok"
				if e.Class != internal.ClassNone.String() {
					result = e.Class
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Kind, result, e.Attempts, e.URL)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		used, dailyLimit, err := app.Usage(cmd.Context())
		if err != nil {
			return err
		}
		if dailyLimit > 0 {
			fmt.Printf("\nToday: %d/%d\n", used, dailyLimit)
		} else {
			fmt.Printf("\nToday: %d (no daily limit)\n", used)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show")
	rootCmd.AddCommand(historyCmd)
}
