package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	t.Run("url", func(t *testing.T) {
		p := ParseInput("  https://www.tiktok.com/@u/video/1 ")
		require.True(t, p.IsValid())
		assert.Equal(t, InputURL, p.Type)
		assert.Equal(t, "https://www.tiktok.com/@u/video/1", p.Normalized)
		assert.Equal(t, PlatformTikTok, p.Platform)
	})

	t.Run("local file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "clip.m4a")
		require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

		p := ParseInput(path)
		require.True(t, p.IsValid())
		assert.Equal(t, InputLocalFile, p.Type)
		assert.Equal(t, path, p.Normalized)
	})

	for _, bad := range []string{"", "   ", "ftp://example.com/a", "tAP1eZYEuKA", "/does/not/exist.mp4"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			p := ParseInput(bad)
			assert.False(t, p.IsValid())
			assert.Error(t, p.Error)
		})
	}
}

func TestParseAssetKind(t *testing.T) {
	k, err := ParseAssetKind("")
	require.NoError(t, err)
	assert.Equal(t, AssetAudio, k)

	k, err = ParseAssetKind("Video")
	require.NoError(t, err)
	assert.Equal(t, AssetPreview, k)

	_, err = ParseAssetKind("gif")
	assert.Error(t, err)
}

func TestAssetKindExtensions(t *testing.T) {
	assert.Equal(t, ".wav", AssetAudio.Extensions()[0])
	assert.Equal(t, ".mp4", AssetPreview.Extensions()[0])
	assert.Contains(t, AssetAudio.Extensions(), ".mp3")
}
