package internal

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// AssetKind selects what the acquisition pipeline should produce
type AssetKind int

const (
	AssetAudio AssetKind = iota
	AssetPreview
)

// String returns a human-readable representation of the asset kind
func (k AssetKind) String() string {
	switch k {
	case AssetAudio:
		return "audio"
	case AssetPreview:
		return "preview"
	default:
		return "unknown"
	}
}

// prefix is the file name prefix used for cached assets of this kind
func (k AssetKind) prefix() string {
	if k == AssetPreview {
		return "preview"
	}
	return "audio"
}

// Extensions lists the file extensions an extraction of this kind may produce,
// in the order they are probed
func (k AssetKind) Extensions() []string {
	if k == AssetPreview {
		return []string{".mp4", ".mkv", ".webm"}
	}
	return []string{".wav", ".m4a", ".mp3", ".webm", ".mp4", ".aac"}
}

// ParseAssetKind maps a user supplied name to an AssetKind
func ParseAssetKind(s string) (AssetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "audio":
		return AssetAudio, nil
	case "preview", "video":
		return AssetPreview, nil
	default:
		return AssetAudio, fmt.Errorf("unknown asset kind %q (expected audio or preview)", s)
	}
}

// InputType represents what a command line argument refers to
type InputType int

const (
	InputUnknown InputType = iota
	InputURL
	InputLocalFile
)

// String returns a human-readable representation of the input type
func (t InputType) String() string {
	switch t {
	case InputURL:
		return "url"
	case InputLocalFile:
		return "file"
	default:
		return "unknown"
	}
}

// ParsedInput represents the result of parsing a command line argument
type ParsedInput struct {
	Type          InputType
	OriginalInput string
	Normalized    string
	Platform      Platform
	Error         error
}

// IsValid returns true if the parsed input can be acquired
func (p *ParsedInput) IsValid() bool {
	return p.Error == nil && p.Type != InputUnknown
}

// String returns a formatted representation of the parsed input
func (p *ParsedInput) String() string {
	if p.Error != nil {
		return fmt.Sprintf("ParsedInput{type=%s, input=%q, error=%v}", p.Type, p.OriginalInput, p.Error)
	}
	return fmt.Sprintf("ParsedInput{type=%s, platform=%s, value=%s}", p.Type, p.Platform, p.Normalized)
}

// ParseInput classifies an argument as a media URL or a local media file
func ParseInput(arg string) *ParsedInput {
	arg = strings.TrimSpace(arg)
	parsed := &ParsedInput{OriginalInput: arg}

	if arg == "" {
		parsed.Error = fmt.Errorf("empty input")
		return parsed
	}

	if FileExists(arg) {
		abs, err := filepath.Abs(arg)
		if err != nil {
			abs = arg
		}
		parsed.Type = InputLocalFile
		parsed.Normalized = abs
		return parsed
	}

	u, err := url.Parse(arg)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		parsed.Error = fmt.Errorf("%q is neither an http(s) URL nor an existing file", arg)
		return parsed
	}

	parsed.Type = InputURL
	parsed.Normalized = arg
	parsed.Platform = DetectPlatform(arg)
	return parsed
}
