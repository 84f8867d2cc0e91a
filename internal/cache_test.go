package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	c := NewCache(t.TempDir(), false)
	a := c.Key("https://www.tiktok.com/@u/video/1")
	assert.Len(t, a, 64)
	assert.Equal(t, a, c.Key("https://www.tiktok.com/@u/video/1"))
	assert.NotEqual(t, a, c.Key("https://www.tiktok.com/@u/video/1?is_from_webapp=1"), "exact URLs by default")

	n := NewCache(t.TempDir(), true)
	assert.Equal(t,
		n.Key("https://www.tiktok.com/@u/video/1"),
		n.Key("https://www.tiktok.com/@u/video/1?is_from_webapp=1&sender_device=pc#top"))
}

func TestCacheOutputBase(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, false)
	base := c.OutputBase("https://youtu.be/x", AssetPreview)
	assert.Equal(t, dir, filepath.Dir(base))
	assert.True(t, strings.HasPrefix(filepath.Base(base), "preview_"))
	assert.True(t, strings.HasPrefix(filepath.Base(c.OutputBase("https://youtu.be/x", AssetAudio)), "audio_"))
}

func TestCacheGetPut(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, false)
	url := "https://youtu.be/x"

	_, ok := c.Get(url, AssetAudio)
	assert.False(t, ok)

	// a file at the conventional name is found by probing
	probed := c.OutputBase(url, AssetAudio) + ".mp3"
	require.NoError(t, os.WriteFile(probed, []byte("a"), 0644))
	path, ok := c.Get(url, AssetAudio)
	require.True(t, ok)
	assert.Equal(t, probed, path)

	// Put remembers paths outside the naming convention as long as they exist
	other := filepath.Join(dir, "elsewhere.wav")
	require.NoError(t, os.WriteFile(other, []byte("b"), 0644))
	c.Put(url, AssetAudio, other)
	path, ok = c.Get(url, AssetAudio)
	require.True(t, ok)
	assert.Equal(t, other, path)

	// a vanished file falls back to probing
	require.NoError(t, os.Remove(other))
	path, ok = c.Get(url, AssetAudio)
	require.True(t, ok)
	assert.Equal(t, probed, path)

	_, ok = c.Get(url, AssetPreview)
	assert.False(t, ok)
}

func TestCachePurge(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, false)
	url := "https://youtu.be/x"

	require.NoError(t, os.WriteFile(c.OutputBase(url, AssetAudio)+".wav", []byte("a"), 0644))
	require.NoError(t, os.WriteFile(c.OutputBase(url, AssetPreview)+".mp4", []byte("v"), 0644))
	require.NoError(t, os.WriteFile(c.OutputBase(url, AssetPreview)+".error", []byte("e"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))
	_, ok := c.Get(url, AssetAudio)
	require.True(t, ok)

	entries, err := c.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	removed, err := c.Purge()
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))

	_, ok = c.Get(url, AssetAudio)
	assert.False(t, ok)
}

func TestCacheEntriesMissingDir(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "absent"), false)
	entries, err := c.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t,
		"https://www.youtube.com/watch?v=abc",
		NormalizeURL("https://www.youtube.com/watch?v=abc&si=XYZ&utm_source=share&feature=shared"))
	assert.Equal(t, "https://youtu.be/abc", NormalizeURL("https://youtu.be/abc?si=123#t=10"))
	assert.Equal(t, "not a url", NormalizeURL("not a url"))
}

func TestFileKey(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("same"), 0644))

	ka, err := FileKey(a)
	require.NoError(t, err)
	kb, err := FileKey(b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb, "keys follow content, not names")
	assert.True(t, strings.HasPrefix(ka, "file:"))

	_, err = FileKey(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
