package internal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tikwmServer struct {
	*httptest.Server
	apiCalls atomic.Int32
	lastURL  atomic.Value
}

// newTikWMServer serves a TikWM style API at /api/ and media under /media/
func newTikWMServer(t *testing.T, apiBody func(base string) string) *tikwmServer {
	t.Helper()
	s := &tikwmServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		s.apiCalls.Add(1)
		s.lastURL.Store(r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, apiBody("http://"+r.Host))
	})
	mux.HandleFunc("/media/audio.mp3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ID3-audio")
	})
	mux.HandleFunc("/media/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "mp4-video")
	})
	mux.HandleFunc("/media/empty.mp4", func(w http.ResponseWriter, r *http.Request) {})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func okResponse(base string) string {
	return fmt.Sprintf(`{"code":0,"msg":"success","data":{"id":"7234567890123456789","title":"dance","play":"%[1]s/media/video.mp4","music":"%[1]s/media/audio.mp3","cover":"%[1]s/cover.jpg","duration":15,"author":{"nickname":"user"}}}`, base)
}

func newTestMirror(s *tikwmServer) *TikWMMirror {
	return NewTikWMMirror(s.URL+"/api/", NewStdClient(5*time.Second), 0)
}

func TestTikWMMirrorFetch(t *testing.T) {
	srv := newTikWMServer(t, okResponse)
	m := newTestMirror(srv)
	base := filepath.Join(t.TempDir(), "audio_key")

	path, err := m.Fetch(context.Background(), tiktokURL+"?is_from_webapp=1&sender_device=pc", AssetAudio, base)
	require.NoError(t, err)
	assert.Equal(t, base+".mp3", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio", string(data))
	assert.Equal(t, tiktokURL, srv.lastURL.Load(), "query string is stripped before lookup")

	path, err = m.Fetch(context.Background(), tiktokURL, AssetPreview, base)
	require.NoError(t, err)
	assert.Equal(t, base+".mp4", path)
}

func TestTikWMMirrorErrors(t *testing.T) {
	base := filepath.Join(t.TempDir(), "preview_key")

	t.Run("unsupported platform", func(t *testing.T) {
		srv := newTikWMServer(t, okResponse)
		_, err := newTestMirror(srv).Fetch(context.Background(), youtubeURL, AssetPreview, base)
		assert.ErrorIs(t, err, ErrMirrorUnsupported)
		assert.Zero(t, srv.apiCalls.Load())
	})

	t.Run("api error code", func(t *testing.T) {
		srv := newTikWMServer(t, func(string) string { return `{"code":-1,"msg":"Url parsing is failed!"}` })
		_, err := newTestMirror(srv).Fetch(context.Background(), tiktokURL, AssetPreview, base)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Url parsing is failed")
		assert.Equal(t, int32(1), srv.apiCalls.Load(), "api errors are not retried")
	})

	t.Run("no data", func(t *testing.T) {
		srv := newTikWMServer(t, func(string) string { return `{"code":0,"msg":"success"}` })
		_, err := newTestMirror(srv).Fetch(context.Background(), tiktokURL, AssetPreview, base)
		assert.ErrorIs(t, err, ErrMirrorNoMedia)
	})

	t.Run("missing media url", func(t *testing.T) {
		srv := newTikWMServer(t, func(string) string { return `{"code":0,"data":{"id":"1","play":""}}` })
		_, err := newTestMirror(srv).Fetch(context.Background(), tiktokURL, AssetPreview, base)
		assert.ErrorIs(t, err, ErrMirrorNoMedia)
	})

	t.Run("empty media body", func(t *testing.T) {
		srv := newTikWMServer(t, func(b string) string {
			return fmt.Sprintf(`{"code":0,"data":{"id":"1","play":"%s/media/empty.mp4"}}`, b)
		})
		_, err := newTestMirror(srv).Fetch(context.Background(), tiktokURL, AssetPreview, base)
		assert.ErrorIs(t, err, ErrMirrorNoMedia)
	})

	t.Run("media not found", func(t *testing.T) {
		srv := newTikWMServer(t, func(b string) string {
			return fmt.Sprintf(`{"code":0,"data":{"id":"1","play":"%s/media/gone.mp4"}}`, b)
		})
		_, err := newTestMirror(srv).Fetch(context.Background(), tiktokURL, AssetPreview, base)
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})
}

func TestTikWMMirrorBacksOffOnRateLimit(t *testing.T) {
	var srv *tikwmServer
	srv = newTikWMServer(t, func(base string) string {
		if srv.apiCalls.Load() < 2 {
			return `{"code":-1,"msg":"Free Api Limit: 1 request/second."}`
		}
		return okResponse(base)
	})
	m := newTestMirror(srv)
	m.backoff = mirrorBackoff{Attempts: 3, Wait: time.Millisecond}

	path, err := m.Fetch(context.Background(), tiktokURL, AssetPreview, filepath.Join(t.TempDir(), "preview_key"))
	require.NoError(t, err)
	assert.Equal(t, ".mp4", filepath.Ext(path))
	assert.Equal(t, int32(2), srv.apiCalls.Load())
}

func TestTikWMMirrorInfo(t *testing.T) {
	srv := newTikWMServer(t, okResponse)
	info, err := newTestMirror(srv).Info(context.Background(), tiktokURL+"?lang=en")
	require.NoError(t, err)
	assert.Equal(t, "dance", info.Title)
	assert.Equal(t, "user", info.Uploader)
	assert.Equal(t, "TikTok", info.Platform)
	assert.Equal(t, tiktokURL, info.WebpageURL)
	assert.InDelta(t, 15, info.Duration, 0.001)
}

func TestTikWMMirrorSupports(t *testing.T) {
	m := NewTikWMMirror("", NewStdClient(time.Second), 1)
	assert.True(t, m.Supports(PlatformTikTok))
	assert.False(t, m.Supports(PlatformYouTube))
	assert.False(t, m.Supports(PlatformOther))
	assert.Equal(t, DefaultMirrorEndpoint, m.endpoint)
}

func TestEngineUsesTikWMMirror(t *testing.T) {
	srv := newTikWMServer(t, okResponse)
	ext := &stubExtractor{respond: alwaysFail("Your IP address is blocked from accessing this post")}
	e := newTestEngine(t, ext, stubSources{NoCredentials{}}, WithMirror(newTestMirror(srv)))

	outcome := acquireURL(t, e, tiktokURL, AssetPreview)

	require.True(t, outcome.OK(), outcome.Message)
	assert.True(t, outcome.FromMirror)
	assert.Equal(t, ".mp4", filepath.Ext(outcome.Path))
	assert.Equal(t, 1, outcome.Attempts)
}
