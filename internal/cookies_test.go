package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCookies = `# Netscape HTTP Cookie File
# This is a generated file! Do not edit.

.tiktok.com	TRUE	/	TRUE	1893456000	sessionid	abc123
#HttpOnly_.tiktok.com	TRUE	/	TRUE	946684800	tt_csrf	old
www.tiktok.com	FALSE	/	FALSE	0	locale	en
malformed line
`

func TestParseNetscapeCookies(t *testing.T) {
	cookies, err := ParseNetscapeCookies(strings.NewReader(sampleCookies))
	require.NoError(t, err)
	require.Len(t, cookies, 3)

	assert.Equal(t, "sessionid", cookies[0].Name)
	assert.Equal(t, "abc123", cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, int64(1893456000), cookies[0].Expires.Unix())

	assert.True(t, cookies[1].HttpOnly)
	assert.Equal(t, ".tiktok.com", cookies[1].Domain)

	assert.True(t, cookies[2].Expires.IsZero(), "0 expiry is a session cookie")
}

func TestCookiePlatform(t *testing.T) {
	cookies, err := ParseNetscapeCookies(strings.NewReader(sampleCookies))
	require.NoError(t, err)
	assert.Equal(t, PlatformTikTok, CookiePlatform(cookies))

	yt, err := ParseNetscapeCookies(strings.NewReader(".youtube.com\tTRUE\t/\tTRUE\t0\tSID\tx\n"))
	require.NoError(t, err)
	assert.Equal(t, PlatformYouTube, CookiePlatform(yt))

	other, err := ParseNetscapeCookies(strings.NewReader(".example.com\tTRUE\t/\tTRUE\t0\tSID\tx\n"))
	require.NoError(t, err)
	assert.Equal(t, PlatformOther, CookiePlatform(other))
}

func TestInspectCookieFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiktok_cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleCookies), 0600))

	now := time.Unix(1700000000, 0)
	status := InspectCookieFile("tiktok", path, now)
	require.NoError(t, status.Err)
	assert.True(t, status.Exists)
	assert.Equal(t, 3, status.Total)
	assert.Equal(t, 1, status.Expired)

	missing := InspectCookieFile("youtube", filepath.Join(dir, "nope.txt"), now)
	assert.False(t, missing.Exists)
	assert.NoError(t, missing.Err)
}

func TestImportCookieFile(t *testing.T) {
	r, dir := newTestRegistry(t, "linux")
	src := filepath.Join(t.TempDir(), "export.txt")
	require.NoError(t, os.WriteFile(src, []byte(sampleCookies), 0644))

	dest, platform, err := ImportCookieFile(src, r)
	require.NoError(t, err)
	assert.Equal(t, PlatformTikTok, platform)
	assert.Equal(t, filepath.Join(dir, "tiktok_cookies.txt"), dest)

	// the imported file is now offered ahead of anonymous attempts
	assert.Equal(t, []string{"file:tiktok_cookies.txt", "no-cookies"}, sourceNames(r.SourcesFor(PlatformTikTok)))

	t.Run("unknown domain goes to the project file", func(t *testing.T) {
		other := filepath.Join(t.TempDir(), "other.txt")
		require.NoError(t, os.WriteFile(other, []byte(".example.com\tTRUE\t/\tTRUE\t0\tSID\tx\n"), 0644))
		dest, platform, err := ImportCookieFile(other, r)
		require.NoError(t, err)
		assert.Equal(t, PlatformOther, platform)
		assert.Equal(t, filepath.Join(dir, "PROJECT_COOKIES.txt"), dest)
	})

	t.Run("empty file is rejected", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.txt")
		require.NoError(t, os.WriteFile(empty, []byte("# Netscape HTTP Cookie File\n"), 0644))
		_, _, err := ImportCookieFile(empty, r)
		assert.ErrorIs(t, err, ErrNoCookies)
	})
}
