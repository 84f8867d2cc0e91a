package internal

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Config holds application settings
type Config struct {
	// Credential locations
	CookiesDir        string
	ProjectCookieFile string
	YouTubeCookieFile string
	TikTokCookieFile  string

	// Acquisition tuning
	AudioTimeout   time.Duration
	PreviewTimeout time.Duration
	Retries        int
	Workers        int
	DailyLimit     int

	// Mirror fallback
	MirrorEndpoint string
	MirrorEnabled  bool
	MirrorRPS      float64

	NormalizeCacheKeys bool
	DedupeInflight     bool

	Verbose bool
	Quiet   bool
	LogFile string

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
	AssetsDir string
}

//go:embed config.toml
var defaultFS embed.FS

const appName = "mediafetch"

// ensureDefaultFile checks if a file exists in the specified directory
// and creates it from the embedded default if it doesn't exist
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)

	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Fprintf(os.Stderr, "Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig checks if a config file exists in the XDG config directory
// and creates it from the embedded default if it doesn't exist
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// InitConfig initializes Viper and loads configuration
func InitConfig() *Config {
	configDir := filepath.Join(xdg.ConfigHome, appName)
	dataDir := filepath.Join(xdg.DataHome, appName)
	cacheDir := filepath.Join(xdg.CacheHome, appName)

	v := newViper(configDir, dataDir, cacheDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := configFromViper(v)
	config.ConfigDir = configDir
	config.DataDir = dataDir
	config.CacheDir = cacheDir
	config.AssetsDir = filepath.Join(cacheDir, "assets")

	return config
}

// newViper sets defaults, config search paths and environment binding
func newViper(configDir, dataDir, cacheDir string) *viper.Viper {
	v := viper.New()

	v.SetDefault("cookies_dir", filepath.Join(dataDir, "cookies"))
	v.SetDefault("project_cookie_file", "PROJECT_COOKIES.txt")
	v.SetDefault("youtube_cookie_file", "youtube_cookies.txt")
	v.SetDefault("tiktok_cookie_file", "tiktok_cookies.txt")
	v.SetDefault("audio_timeout", 60*time.Second)
	v.SetDefault("preview_timeout", 15*time.Second)
	v.SetDefault("retries", maxRetries)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("daily_limit", DefaultDailyLimit)
	v.SetDefault("mirror_endpoint", DefaultMirrorEndpoint)
	v.SetDefault("mirror_enabled", true)
	v.SetDefault("mirror_rps", 1.0)
	v.SetDefault("normalize_cache_keys", false)
	v.SetDefault("dedupe_inflight", false)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("log_file", filepath.Join(cacheDir, "mediafetch.log"))

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("MEDIAFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func configFromViper(v *viper.Viper) *Config {
	return &Config{
		CookiesDir:         v.GetString("cookies_dir"),
		ProjectCookieFile:  v.GetString("project_cookie_file"),
		YouTubeCookieFile:  v.GetString("youtube_cookie_file"),
		TikTokCookieFile:   v.GetString("tiktok_cookie_file"),
		AudioTimeout:       v.GetDuration("audio_timeout"),
		PreviewTimeout:     v.GetDuration("preview_timeout"),
		Retries:            v.GetInt("retries"),
		Workers:            v.GetInt("workers"),
		DailyLimit:         v.GetInt("daily_limit"),
		MirrorEndpoint:     v.GetString("mirror_endpoint"),
		MirrorEnabled:      v.GetBool("mirror_enabled"),
		MirrorRPS:          v.GetFloat64("mirror_rps"),
		NormalizeCacheKeys: v.GetBool("normalize_cache_keys"),
		DedupeInflight:     v.GetBool("dedupe_inflight"),
		Verbose:            v.GetBool("verbose"),
		Quiet:              v.GetBool("quiet"),
		LogFile:            v.GetString("log_file"),
	}
}

// EngineSettings derives attempt tuning from the configuration
func (c *Config) EngineSettings() EngineSettings {
	s := DefaultEngineSettings()
	if c.AudioTimeout > 0 {
		s.AudioTimeout = c.AudioTimeout
	}
	if c.PreviewTimeout > 0 {
		s.PreviewTimeout = c.PreviewTimeout
	}
	if c.Retries >= 0 {
		s.Retries = min(c.Retries, maxRetries)
	}
	s.DedupeInflight = c.DedupeInflight
	return s
}
