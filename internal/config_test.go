package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	root := t.TempDir()
	v := newViper(filepath.Join(root, "config"), filepath.Join(root, "data"), filepath.Join(root, "cache"))
	c := configFromViper(v)

	assert.Equal(t, filepath.Join(root, "data", "cookies"), c.CookiesDir)
	assert.Equal(t, "PROJECT_COOKIES.txt", c.ProjectCookieFile)
	assert.Equal(t, 60*time.Second, c.AudioTimeout)
	assert.Equal(t, 15*time.Second, c.PreviewTimeout)
	assert.Equal(t, 5, c.Retries)
	assert.Equal(t, DefaultWorkers, c.Workers)
	assert.Equal(t, DefaultDailyLimit, c.DailyLimit)
	assert.True(t, c.MirrorEnabled)
	assert.Equal(t, DefaultMirrorEndpoint, c.MirrorEndpoint)
	assert.False(t, c.NormalizeCacheKeys)
	assert.Equal(t, filepath.Join(root, "cache", "mediafetch.log"), c.LogFile)
}

func TestConfigFileAndEnv(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, "config")
	require.NoError(t, EnsureDefaultConfig(configDir))
	assert.FileExists(t, filepath.Join(configDir, "config.toml"))

	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(`
audio_timeout = "90s"
workers = 8
mirror_enabled = false
`), 0644))
	t.Setenv("MEDIAFETCH_DAILY_LIMIT", "50")

	v := newViper(configDir, filepath.Join(root, "data"), filepath.Join(root, "cache"))
	require.NoError(t, v.ReadInConfig())
	c := configFromViper(v)

	assert.Equal(t, 90*time.Second, c.AudioTimeout)
	assert.Equal(t, 8, c.Workers)
	assert.False(t, c.MirrorEnabled)
	assert.Equal(t, 50, c.DailyLimit)
}

func TestEngineSettingsFromConfig(t *testing.T) {
	s := (&Config{AudioTimeout: 30 * time.Second, Retries: 12, DedupeInflight: true}).EngineSettings()
	assert.Equal(t, 30*time.Second, s.AudioTimeout)
	assert.Equal(t, 15*time.Second, s.PreviewTimeout)
	assert.Equal(t, maxRetries, s.Retries)
	assert.True(t, s.DedupeInflight)
	assert.True(t, s.WriteDiagnostics)
}
