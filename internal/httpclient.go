package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"
)

// HTTPDoer performs a single HTTP request and returns the body and status code
type HTTPDoer interface {
	Do(ctx context.Context, method, url string, headers map[string]string) ([]byte, int, error)
}

// BrowserClient wraps tls-client with a Safari TLS fingerprint so mirror traffic
// looks like the same browser the extractor impersonates
type BrowserClient struct {
	client tls_client.HttpClient
}

// NewBrowserClient creates a client that impersonates Safari
func NewBrowserClient(timeout time.Duration) (*BrowserClient, error) {
	opts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Safari_16_0),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithCookieJar(tls_client.NewCookieJar()),
	}
	client, err := tls_client.NewHttpClient(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("tls-client init: %w", err)
	}
	return &BrowserClient{client: client}, nil
}

// Do executes a request with the Safari fingerprint
func (bc *BrowserClient) Do(ctx context.Context, method, url string, headers map[string]string) ([]byte, int, error) {
	req, err := fhttp.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header[fhttp.HeaderOrderKey] = []string{
		"accept",
		"accept-language",
		"referer",
		"user-agent",
	}

	resp, err := bc.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("tls request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// StdClient is an HTTPDoer over net/http, used when the TLS client cannot be created
type StdClient struct {
	Client *http.Client
}

// NewStdClient creates a plain client that does not follow redirects
func NewStdClient(timeout time.Duration) *StdClient {
	return &StdClient{Client: &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

// Do executes a request
func (sc *StdClient) Do(ctx context.Context, method, url string, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := sc.Client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return data, resp.StatusCode, nil
}

// NewMirrorClient prefers the fingerprinted client and falls back to net/http
func NewMirrorClient(timeout time.Duration) HTTPDoer {
	bc, err := NewBrowserClient(timeout)
	if err != nil {
		zap.S().Named("http").Warnw("falling back to net/http", "error", err)
		return NewStdClient(timeout)
	}
	return bc
}

// mirrorBackoff bounds how often a mirror API lookup is repeated
type mirrorBackoff struct {
	Attempts int
	Wait     time.Duration
}

var defaultMirrorBackoff = mirrorBackoff{Attempts: 3, Wait: time.Second}

// StatusError is returned for unexpected HTTP status codes
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// MirrorAPIError is a non-zero code in a mirror JSON response
type MirrorAPIError struct {
	Code int
	Msg  string
}

func (e *MirrorAPIError) Error() string {
	return fmt.Sprintf("mirror error %d: %s", e.Code, e.Msg)
}

// rateLimited reports whether the mirror refused the call for exceeding its free quota,
// e.g. "Free Api Limit: 1 request/second"
func (e *MirrorAPIError) rateLimited() bool {
	return strings.Contains(strings.ToLower(e.Msg), "limit")
}

// lookupWithBackoff repeats a mirror lookup while it fails with a rate limit, a
// gateway status or a network error. The wait doubles after each failure.
func lookupWithBackoff[T any](ctx context.Context, b mirrorBackoff, fn func() (T, error)) (T, error) {
	var zero T
	var err error
	wait := b.Wait

	for attempt := 1; attempt <= b.Attempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		var result T
		result, err = fn()
		if err == nil || !mirrorRetryable(err) {
			return result, err
		}
		if attempt == b.Attempts {
			break
		}

		zap.S().Named("mirror").Debugw("lookup failed, backing off", "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		wait *= 2
	}
	return zero, err
}

func mirrorRetryable(err error) bool {
	var apiErr *MirrorAPIError
	if errors.As(err, &apiErr) {
		return apiErr.rateLimited()
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
