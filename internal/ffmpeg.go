package internal

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandRunner executes external commands
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner implements CommandRunner
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Audio handles local media conversion using FFmpeg
type Audio struct {
	cmdRunner CommandRunner
}

// NewAudio creates a new audio processor
func NewAudio(cmdRunner CommandRunner) *Audio {
	return &Audio{cmdRunner: cmdRunner}
}

// Duration returns the media file duration in seconds
func (a *Audio) Duration(ctx context.Context, mediaFile string) (float64, error) {
	output, err := a.cmdRunner.Run(ctx, "ffprobe",
		"-i", mediaFile,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0")

	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w\nOutput: %s", err, string(output))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration: %w", err)
	}

	return duration, nil
}

// ToWAV extracts the audio track of a media file as 16 kHz mono WAV, the same shape
// the extractor produces for downloaded audio
func (a *Audio) ToWAV(ctx context.Context, mediaFile, output string) error {
	cmdOutput, err := a.cmdRunner.Run(ctx, "ffmpeg",
		"-v", "quiet",
		"-i", mediaFile,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-y", output)

	if err != nil {
		return &ExtractError{
			Class:   ClassActionable,
			Message: fmt.Sprintf("ffmpeg could not read %s: %v\nOutput: %s", mediaFile, err, strings.TrimSpace(string(cmdOutput))),
			Err:     err,
		}
	}
	return nil
}
