package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// pathsCmd represents the paths command
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show paths used by the application",
	Example: `  # Show all application paths
  mediafetch paths`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config directory: %s\n", config.ConfigDir)
		fmt.Printf("Data directory: %s\n", config.DataDir)
		fmt.Printf("Cache directory: %s\n", config.CacheDir)
		fmt.Printf("Assets directory: %s\n", config.AssetsDir)
		fmt.Printf("Cookies directory: %s\n", config.CookiesDir)
		fmt.Printf("History database: %s\n", filepath.Join(config.DataDir, "history.db"))
		fmt.Printf("Log file: %s\n", config.LogFile)
	},
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}
