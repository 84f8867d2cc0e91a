package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceNames(sources []CredentialSource) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}

func newTestRegistry(t *testing.T, goos string) (*CredentialRegistry, string) {
	t.Helper()
	dir := t.TempDir()
	config := &Config{
		CookiesDir:        dir,
		ProjectCookieFile: "PROJECT_COOKIES.txt",
		YouTubeCookieFile: "youtube_cookies.txt",
		TikTokCookieFile:  "tiktok_cookies.txt",
	}
	r := NewCredentialRegistry(config)
	r.GOOS = goos
	return r, dir
}

func TestSourcesForEndsWithNoCredentials(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows", "plan9"} {
		for _, p := range []Platform{PlatformYouTube, PlatformTikTok, PlatformOther} {
			r, _ := newTestRegistry(t, goos)
			sources := r.SourcesFor(p)
			require.NotEmpty(t, sources)
			assert.Equal(t, "no-cookies", sources[len(sources)-1].Name(), "%s/%s", goos, p)
		}
	}
}

func TestSourcesForOrdering(t *testing.T) {
	r, dir := newTestRegistry(t, "darwin")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PROJECT_COOKIES.txt"), []byte("#"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiktok_cookies.txt"), []byte("#"), 0600))

	assert.Equal(t,
		[]string{"file:PROJECT_COOKIES.txt", "file:tiktok_cookies.txt", "browser:safari", "no-cookies"},
		sourceNames(r.SourcesFor(PlatformTikTok)))

	// youtube file is absent, so only the project file precedes the browser
	assert.Equal(t,
		[]string{"file:PROJECT_COOKIES.txt", "browser:safari", "no-cookies"},
		sourceNames(r.SourcesFor(PlatformYouTube)))
}

func TestSourcesForBrowserPolicy(t *testing.T) {
	r, _ := newTestRegistry(t, "linux")
	assert.Equal(t, []string{"browser:firefox", "no-cookies"}, sourceNames(r.SourcesFor(PlatformYouTube)))
	assert.Equal(t, []string{"no-cookies"}, sourceNames(r.SourcesFor(PlatformTikTok)))

	r, _ = newTestRegistry(t, "windows")
	assert.Equal(t, []string{"no-cookies"}, sourceNames(r.SourcesFor(PlatformOther)))
}

func TestSourcesForRechecksFiles(t *testing.T) {
	r, dir := newTestRegistry(t, "plan9")
	assert.Equal(t, []string{"no-cookies"}, sourceNames(r.SourcesFor(PlatformYouTube)))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "youtube_cookies.txt"), []byte("#"), 0600))
	assert.Equal(t, []string{"file:youtube_cookies.txt", "no-cookies"}, sourceNames(r.SourcesFor(PlatformYouTube)))
}

func TestCredentialApply(t *testing.T) {
	var job ExtractJob
	CookieFile{Path: "/tmp/c.txt"}.Apply(&job)
	BrowserCookies{Browser: "safari"}.Apply(&job)
	NoCredentials{}.Apply(&job)

	assert.Equal(t, "/tmp/c.txt", job.CookieFile)
	assert.Equal(t, "safari", job.CookiesFromBrowser)
	assert.False(t, CookieFile{}.Spoofable())
	assert.True(t, BrowserCookies{}.Spoofable())
	assert.True(t, NoCredentials{}.Spoofable())
}

func TestNewCredentialRegistryKeepsAbsolutePaths(t *testing.T) {
	r := NewCredentialRegistry(&Config{CookiesDir: "/cookies", ProjectCookieFile: "/etc/project.txt", YouTubeCookieFile: "yt.txt"})
	assert.Equal(t, "/etc/project.txt", r.ProjectFile)
	assert.Equal(t, filepath.Join("/cookies", "yt.txt"), r.PlatformFiles[PlatformYouTube])
	assert.Equal(t, "", r.PlatformFiles[PlatformTikTok])
}
