package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// cookiesCmd groups cookie file management
var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Manage cookie files used for authenticated downloads",
	Long: `Cookie files are Netscape cookies.txt exports from a logged-in browser session.

mediafetch looks for a project-wide file and one file per platform in the
cookies directory (see 'mediafetch paths'). Cookie files are always tried before
browser cookies and anonymous attempts.`,
}

var cookiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show configured cookie files and how many cookies have expired",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		defer app.Close()

		for _, s := range app.CookieStatus() {
			switch {
			case s.Err != nil:
				fmt.Printf("%-8s %s (unreadable: %v)\n", s.Label, s.Path, s.Err)
			case !s.Exists:
				fmt.Printf("%-8s %s (missing)\n", s.Label, s.Path)
			default:
				fmt.Printf("%-8s %s (%d cookies, %d expired)\n", s.Label, s.Path, s.Total, s.Expired)
			}
		}
		return nil
	},
}

var cookiesImportCmd = &cobra.Command{
	Use:   "import [cookies.txt]",
	Short: "Import an exported cookies.txt for the platform it belongs to",
	Example: `  # Import cookies exported with a browser extension
  mediafetch cookies import ~/Downloads/cookies.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := internal.NewApp(config)
		defer app.Close()

		dest, platform, err := app.ImportCookies(args[0])
		if err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Printf("Imported %s cookies to %s\n", platform, dest)
		}
		return nil
	},
}

func init() {
	cookiesCmd.AddCommand(cookiesListCmd, cookiesImportCmd)
	rootCmd.AddCommand(cookiesCmd)
}
