package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lrstanley/go-ytdlp"
	"github.com/spf13/cobra"

	"github.com/rtzll/mediafetch/internal"
)

// outcomeJSON is the --json rendering of an acquisition outcome
type outcomeJSON struct {
	URL        string `json:"url"`
	Kind       string `json:"kind"`
	Path       string `json:"path,omitempty"`
	Class      string `json:"class"`
	Message    string `json:"message,omitempty"`
	Hint       string `json:"hint,omitempty"`
	Attempts   int    `json:"attempts"`
	FromCache  bool   `json:"from_cache"`
	FromMirror bool   `json:"from_mirror"`
}

func toJSON(o internal.Outcome) outcomeJSON {
	return outcomeJSON{
		URL:        o.URL,
		Kind:       o.Kind.String(),
		Path:       o.Path,
		Class:      o.Class.String(),
		Message:    o.Message,
		Hint:       o.Hint,
		Attempts:   o.Attempts,
		FromCache:  o.FromCache,
		FromMirror: o.FromMirror,
	}
}

// ensureExtractor installs yt-dlp on first use
func ensureExtractor(ctx context.Context) {
	ytdlp.MustInstall(ctx, nil)
}

// runAcquire fetches one asset per argument and prints the resulting paths.
// Failures are reported on stderr with their hint.
func runAcquire(cmd *cobra.Command, args []string, kind internal.AssetKind) error {
	if err := internal.HandleAcquireFlags(cmd, config); err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	ensureExtractor(ctx)

	app := internal.NewApp(config)
	defer app.Close()

	var outcomes []internal.Outcome
	if len(args) == 1 {
		outcome, err := app.Acquire(ctx, args[0], kind)
		if err != nil && outcome.Class == internal.ClassNone {
			// rejected before the engine ran (bad input or quota)
			return err
		}
		outcomes = []internal.Outcome{outcome}
	} else {
		var err error
		outcomes, err = app.AcquireAll(ctx, args, kind)
		if err != nil {
			return err
		}
	}

	if asJSON {
		out := make([]outcomeJSON, len(outcomes))
		for i, o := range outcomes {
			out[i] = toJSON(o)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding outcomes: %w", err)
		}
		fmt.Println(string(data))
	}

	failed := 0
	for _, o := range outcomes {
		if o.OK() {
			if !asJSON {
				fmt.Println(o.Path)
			}
			continue
		}
		failed++
		if !asJSON {
			printFailure(o)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d acquisitions failed", failed, len(outcomes))
	}
	return nil
}

// printFailure writes a failed outcome and its remediation hint to stderr
func printFailure(o internal.Outcome) {
	fmt.Fprintf(os.Stderr, "Error: %s: %s (%s)\n", o.URL, firstLine(o.Message), o.Class)
	if o.Hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", o.Hint)
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
