package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultMirrorEndpoint is the public TikWM API
const DefaultMirrorEndpoint = "https://www.tikwm.com/api/"

const (
	mirrorAPITimeout      = 15 * time.Second
	mirrorDownloadTimeout = 30 * time.Second
)

var (
	// ErrMirrorNoMedia is returned when the mirror answered without a usable media URL
	ErrMirrorNoMedia = errors.New("mirror returned no media URL")
	// ErrMirrorUnsupported is returned for platforms the mirror cannot serve
	ErrMirrorUnsupported = errors.New("platform not supported by mirror")
)

// Mirror is a last-resort third-party service that re-serves media from a blocked platform
type Mirror interface {
	Supports(p Platform) bool
	Fetch(ctx context.Context, rawURL string, kind AssetKind, outputBase string) (string, error)
}

// tikwmResponse is the observable contract of the TikWM API
type tikwmResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		ID       string  `json:"id"`
		Title    string  `json:"title"`
		Play     string  `json:"play"`
		Music    string  `json:"music"`
		Cover    string  `json:"cover"`
		Duration float64 `json:"duration"`
		Author   struct {
			Nickname string `json:"nickname"`
		} `json:"author"`
	} `json:"data"`
}

// TikWMMirror fetches TikTok media through the TikWM API
type TikWMMirror struct {
	endpoint string
	client   HTTPDoer
	limiter  *rate.Limiter
	backoff  mirrorBackoff
	log      *zap.SugaredLogger
}

// NewTikWMMirror creates a mirror client. rps <= 0 disables rate limiting.
func NewTikWMMirror(endpoint string, client HTTPDoer, rps float64) *TikWMMirror {
	if endpoint == "" {
		endpoint = DefaultMirrorEndpoint
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &TikWMMirror{
		endpoint: endpoint,
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		backoff:  defaultMirrorBackoff,
		log:      zap.S().Named("mirror"),
	}
}

// Supports reports whether the mirror serves this platform
func (m *TikWMMirror) Supports(p Platform) bool {
	return p == PlatformTikTok
}

// Fetch downloads the requested asset through the mirror and writes it to
// outputBase plus the kind's mirror extension
func (m *TikWMMirror) Fetch(ctx context.Context, rawURL string, kind AssetKind, outputBase string) (string, error) {
	resp, err := m.lookup(ctx, rawURL)
	if err != nil {
		return "", err
	}

	mediaURL, ext := resp.Data.Music, ".mp3"
	if kind == AssetPreview {
		mediaURL, ext = resp.Data.Play, ".mp4"
	}
	if mediaURL == "" {
		return "", ErrMirrorNoMedia
	}

	m.log.Infow("found media via mirror", "kind", kind, "media", truncate(mediaURL, 60))

	if err := m.limiter.Wait(ctx); err != nil {
		return "", err
	}
	dlCtx, cancel := context.WithTimeout(ctx, mirrorDownloadTimeout)
	defer cancel()

	body, status, err := m.client.Do(dlCtx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("downloading mirror media: %w", err)
	}
	if status != http.StatusOK {
		return "", &StatusError{StatusCode: status}
	}
	if len(body) == 0 {
		return "", ErrMirrorNoMedia
	}

	path := outputBase + ext
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("writing mirror media: %w", err)
	}
	return path, nil
}

// Info returns metadata from the mirror, used when the extractor cannot reach the platform
func (m *TikWMMirror) Info(ctx context.Context, rawURL string) (*VideoInfo, error) {
	resp, err := m.lookup(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return &VideoInfo{
		ID:         resp.Data.ID,
		Title:      resp.Data.Title,
		Uploader:   resp.Data.Author.Nickname,
		Duration:   resp.Data.Duration,
		Platform:   "TikTok",
		WebpageURL: stripQuery(rawURL),
		Thumbnail:  resp.Data.Cover,
		DirectURL:  resp.Data.Play,
	}, nil
}

// lookup queries the mirror API for the query-stripped URL
func (m *TikWMMirror) lookup(ctx context.Context, rawURL string) (*tikwmResponse, error) {
	if !m.Supports(DetectPlatform(rawURL)) {
		return nil, ErrMirrorUnsupported
	}

	apiURL := m.endpoint + "?url=" + url.QueryEscape(stripQuery(rawURL))

	return lookupWithBackoff(ctx, m.backoff, func() (*tikwmResponse, error) {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		apiCtx, cancel := context.WithTimeout(ctx, mirrorAPITimeout)
		defer cancel()

		body, status, err := m.client.Do(apiCtx, http.MethodGet, apiURL, map[string]string{
			"Accept":     "application/json",
			"User-Agent": DefaultUserAgent,
		})
		if err != nil {
			return nil, fmt.Errorf("querying mirror: %w", err)
		}
		if status != http.StatusOK {
			return nil, &StatusError{StatusCode: status}
		}

		var resp tikwmResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decoding mirror response: %w", err)
		}
		if resp.Code != 0 {
			return nil, &MirrorAPIError{Code: resp.Code, Msg: resp.Msg}
		}
		if resp.Data == nil {
			return nil, ErrMirrorNoMedia
		}
		return &resp, nil
	})
}

// stripQuery drops the query string and fragment
func stripQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
