package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

var (
	config *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediafetch [URL or file...]",
	Short: "Fetch audio or preview video from hard-to-download video links",
	Long: `mediafetch turns video links (YouTube, TikTok and most other video sites) or
local media files into local audio or preview-video files.

Each download walks an ordered fallback chain: saved cookie files, browser
cookies and browser fingerprints, then an unauthenticated attempt, and for
TikTok a third-party mirror as a last resort. Results are cached by URL hash,
and failures come with a hint on how to fix them.

Without a subcommand, mediafetch fetches audio.`,
	Example: `  # Fetch audio (16 kHz mono WAV) for a video
  mediafetch "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Fetch several at once, five at a time
  mediafetch URL1 URL2 URL3

  # Convert a local recording
  mediafetch ./interview.m4a

  # Fetch a preview video instead
  mediafetch preview "https://www.tiktok.com/@user/video/7234567890123456789"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.HandleVerboseFlag(cmd, config); err != nil {
			return err
		}
		mcpMode := cmd.Name() == "mcp"
		if _, err := internal.InitLogging(config, mcpMode); err != nil {
			return err
		}
		return nil
	},
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && internal.IsLikelyCommand(args[0]) {
			return unknownCommandError(cmd, args[0])
		}
		return runAcquire(cmd, args, internal.AssetAudio)
	},
}

// unknownCommandError suggests subcommands for arguments that look like typos
func unknownCommandError(cmd *cobra.Command, arg string) error {
	var suggestions []string
	for _, c := range cmd.Commands() {
		name := c.Name()
		if strings.Contains(name, arg) || (arg != "" && len(arg) <= len(name) && strings.HasPrefix(name, arg[:1])) {
			suggestions = append(suggestions, name)
		}
	}

	if len(suggestions) > 0 {
		return fmt.Errorf("'%s' doesn't look like a URL or an existing file. Did you mean: %s?", arg, strings.Join(suggestions, ", "))
	}
	return fmt.Errorf("'%s' doesn't look like a URL or an existing file. Use --help to see available commands", arg)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config = internal.InitConfig()

	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir, config.AssetsDir, config.CookiesDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}

	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Cleaning up and shutting down...")

		cancel()

		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cleanupCancel()

		cleanupDone := make(chan struct{})
		go func() {
			if err := internal.CleanupPartialDownloads(config.AssetsDir); err != nil {
				fmt.Fprintf(os.Stderr, "Error cleaning up partial downloads: %v\n", err)
			}
			close(cleanupDone)
		}()

		select {
		case <-cleanupDone:
		case <-cleanupCtx.Done():
			fmt.Fprintln(os.Stderr, "Warning: Cleanup timed out, forcing exit")
		}

		os.Exit(130)
	}()

	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

func init() {
	internal.AddAcquireFlags(rootCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Only print results and errors")
}
