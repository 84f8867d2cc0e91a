package internal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastBackoff = mirrorBackoff{Attempts: 4, Wait: time.Millisecond}

func TestLookupWithBackoffRetriesGatewayStatus(t *testing.T) {
	calls := 0
	got, err := lookupWithBackoff(context.Background(), fastBackoff, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{StatusCode: http.StatusTooManyRequests}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestLookupWithBackoffStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := lookupWithBackoff(context.Background(), fastBackoff, func() (int, error) {
		calls++
		return 0, &MirrorAPIError{Code: -1, Msg: "Url parsing is failed!"}
	})
	var apiErr *MirrorAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 1, calls)
}

func TestLookupWithBackoffGivesUp(t *testing.T) {
	calls := 0
	_, err := lookupWithBackoff(context.Background(), fastBackoff, func() (int, error) {
		calls++
		return 0, &StatusError{StatusCode: http.StatusBadGateway}
	})
	assert.Error(t, err)
	assert.Equal(t, fastBackoff.Attempts, calls)
}

func TestLookupWithBackoffHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := lookupWithBackoff(ctx, fastBackoff, func() (int, error) {
		calls++
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestMirrorRetryable(t *testing.T) {
	assert.True(t, mirrorRetryable(&StatusError{StatusCode: http.StatusServiceUnavailable}))
	assert.False(t, mirrorRetryable(&StatusError{StatusCode: http.StatusNotFound}))
	assert.True(t, mirrorRetryable(&MirrorAPIError{Code: -1, Msg: "Free Api Limit: 1 request/second."}))
	assert.False(t, mirrorRetryable(&MirrorAPIError{Code: -1, Msg: "Url parsing is failed!"}))
	assert.False(t, mirrorRetryable(errors.New("decoding mirror response")))
}

func TestStdClientDoesNotFollowRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/end", http.StatusFound)
			return
		}
		assert.Equal(t, "mediafetch-test", r.Header.Get("User-Agent"))
		w.Write([]byte("end"))
	}))
	defer srv.Close()

	c := NewStdClient(time.Second)
	_, status, err := c.Do(context.Background(), http.MethodGet, srv.URL+"/start", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, status)

	body, status, err := c.Do(context.Background(), http.MethodGet, srv.URL+"/end", map[string]string{"User-Agent": "mediafetch-test"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "end", string(body))
}
