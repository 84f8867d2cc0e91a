package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintTarget(t *testing.T) {
	assert.Equal(t, "safari-18.0:macos-15", FingerprintProfile{Client: "safari", Version: "18.0", OS: "macos", OSVersion: "15"}.Target())
	assert.Equal(t, "safari:macos", FingerprintProfile{Client: "safari", OS: "macos"}.Target())
	assert.Equal(t, "safari", FingerprintProfile{Client: "safari"}.Target())
}

func TestFingerprintsFor(t *testing.T) {
	yt := FingerprintsFor(PlatformYouTube)
	require.Len(t, yt, 3)
	assert.Equal(t, "safari-18.0:macos-15", yt[0].Target())
	assert.Equal(t, "safari", yt[len(yt)-1].Target(), "generic profile comes last")

	assert.Len(t, FingerprintsFor(PlatformTikTok), 3)
	assert.Empty(t, FingerprintsFor(PlatformOther))

	// callers get their own copy
	yt[0].Client = "chrome"
	assert.Equal(t, "safari", FingerprintsFor(PlatformYouTube)[0].Client)
}

func TestRequestHeaders(t *testing.T) {
	h := requestHeaders(PlatformYouTube, AssetAudio, nil)
	assert.Equal(t, DefaultUserAgent, h["User-Agent"])
	assert.Equal(t, "https://www.google.com/", h["Referer"])

	fp := FingerprintsFor(PlatformTikTok)[1]
	h = requestHeaders(PlatformTikTok, AssetPreview, &fp)
	assert.Equal(t, safari17UserAgent, h["User-Agent"])
	assert.Equal(t, "https://www.tiktok.com/", h["Referer"])
}
