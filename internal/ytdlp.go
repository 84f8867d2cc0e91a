package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"
)

// ExtractJob is the configuration bag handed to the extraction mechanism
type ExtractJob struct {
	URL                string
	Format             string
	OutputTemplate     string
	Timeout            time.Duration
	Retries            int
	Impersonate        string
	Headers            map[string]string
	CookieFile         string
	CookiesFromBrowser string
	ExtractAudio       bool
	AudioFormat        string
	PostProcessorArgs  string
	ExtractorArgs      string
	// MetadataOnly dumps the info JSON without downloading media
	MetadataOnly bool
}

// ExtractResult holds what the extractor printed on success
type ExtractResult struct {
	Output string
}

// Extractor runs a single extraction attempt
type Extractor interface {
	Extract(ctx context.Context, job ExtractJob) (*ExtractResult, error)
}

// Searcher finds videos matching a free-text query
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// VideoInfo contains the metadata shown before a video is processed
type VideoInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader"`
	Duration    float64 `json:"duration"`
	Platform    string  `json:"extractor_key"`
	WebpageURL  string  `json:"webpage_url"`
	Thumbnail   string  `json:"thumbnail"`
	DirectURL   string  `json:"url"`
	Description string  `json:"description"`
}

// YTDLP drives yt-dlp through go-ytdlp
type YTDLP struct {
	log *zap.SugaredLogger
}

// NewYTDLP creates a new yt-dlp backed extractor
func NewYTDLP() *YTDLP {
	return &YTDLP{log: zap.S().Named("ytdlp")}
}

// Extract runs one yt-dlp invocation for the job
func (y *YTDLP) Extract(ctx context.Context, job ExtractJob) (*ExtractResult, error) {
	dl := y.command(job)

	y.log.Debugw("running yt-dlp",
		"url", job.URL,
		"impersonate", job.Impersonate,
		"cookie_file", job.CookieFile,
		"cookies_from_browser", job.CookiesFromBrowser,
		"metadata_only", job.MetadataOnly,
	)

	result, err := dl.Run(ctx, job.URL)
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = strings.TrimSpace(result.Stderr)
		}
		msg := err.Error()
		if stderr != "" {
			msg = fmt.Sprintf("%s\nOutput: %s", msg, stderr)
		}
		return nil, &ExtractError{Message: StripANSI(msg), Err: err}
	}

	return &ExtractResult{Output: result.Stdout}, nil
}

// command translates the job into a yt-dlp invocation
func (y *YTDLP) command(job ExtractJob) *ytdlp.Command {
	dl := ytdlp.New().
		NoPlaylist().
		NoCheckCertificates()

	if job.MetadataOnly {
		dl = dl.DumpSingleJSON().SkipDownload()
	} else {
		dl = dl.NoPart().Output(job.OutputTemplate)
	}
	if job.Format != "" {
		dl = dl.Format(job.Format)
	}
	if job.Timeout > 0 {
		dl = dl.SocketTimeout(job.Timeout.Seconds())
	}
	if job.Retries > 0 {
		dl = dl.Retries(strconv.Itoa(job.Retries))
	}
	if job.Impersonate != "" {
		dl = dl.Impersonate(job.Impersonate)
	}
	if job.ExtractorArgs != "" {
		dl = dl.ExtractorArgs(job.ExtractorArgs)
	}

	// Deterministic header order keeps the command line stable in logs
	keys := make([]string, 0, len(job.Headers))
	for k := range job.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dl = dl.AddHeaders(k + ":" + job.Headers[k])
	}

	if job.CookieFile != "" {
		dl = dl.Cookies(job.CookieFile)
	}
	if job.CookiesFromBrowser != "" {
		dl = dl.CookiesFromBrowser(job.CookiesFromBrowser)
	}

	if job.ExtractAudio && !job.MetadataOnly {
		dl = dl.ExtractAudio()
		if job.AudioFormat != "" {
			dl = dl.AudioFormat(job.AudioFormat)
		}
		if job.PostProcessorArgs != "" {
			dl = dl.PostProcessorArgs(job.PostProcessorArgs)
		}
	}

	return dl
}

// ParseVideoInfo decodes yt-dlp's single JSON dump
func ParseVideoInfo(output string) (*VideoInfo, error) {
	var info VideoInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &info); err != nil {
		return nil, fmt.Errorf("parsing video metadata: %w", err)
	}
	if info.ID == "" && info.Title == "" {
		return nil, fmt.Errorf("parsing video metadata: empty document")
	}
	return &info, nil
}
