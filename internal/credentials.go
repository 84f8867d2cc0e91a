package internal

import (
	"path/filepath"
	"runtime"
)

// CredentialSource supplies authentication material for an extraction attempt
type CredentialSource interface {
	// Name identifies the source in logs and diagnostics
	Name() string
	// Apply configures the job to use this source
	Apply(job *ExtractJob)
	// Spoofable reports whether a fingerprint may be layered on top of this source
	Spoofable() bool
}

// NoCredentials attempts the request anonymously
type NoCredentials struct{}

func (NoCredentials) Name() string      { return "no-cookies" }
func (NoCredentials) Apply(*ExtractJob) {}
func (NoCredentials) Spoofable() bool   { return true }

// CookieFile reads cookies from a Netscape cookies.txt file. A real cookie file paired
// with a mismatched fingerprint is more likely to be flagged, so it is never spoofed.
type CookieFile struct {
	Path string
}

func (c CookieFile) Name() string    { return "file:" + filepath.Base(c.Path) }
func (c CookieFile) Spoofable() bool { return false }
func (c CookieFile) Apply(job *ExtractJob) {
	job.CookieFile = c.Path
}

// BrowserCookies extracts cookies from an installed browser's cookie store
type BrowserCookies struct {
	Browser string
}

func (b BrowserCookies) Name() string    { return "browser:" + b.Browser }
func (b BrowserCookies) Spoofable() bool { return true }
func (b BrowserCookies) Apply(job *ExtractJob) {
	job.CookiesFromBrowser = b.Browser
}

// CredentialRegistry enumerates credential sources for a platform
type CredentialRegistry struct {
	ProjectFile   string
	PlatformFiles map[Platform]string
	// BrowserPolicy maps platform -> GOOS -> the single browser to try
	BrowserPolicy map[Platform]map[string]string
	GOOS          string
}

// DefaultBrowserPolicy prefers Safari on macOS and Firefox elsewhere, where its
// cookie store can be read without OS keyring prompts
func DefaultBrowserPolicy() map[Platform]map[string]string {
	return map[Platform]map[string]string{
		PlatformYouTube: {"darwin": "safari", "linux": "firefox", "windows": "firefox"},
		PlatformTikTok:  {"darwin": "safari"},
		PlatformOther:   {"darwin": "safari", "linux": "firefox"},
	}
}

// NewCredentialRegistry builds a registry from the configured cookie locations
func NewCredentialRegistry(config *Config) *CredentialRegistry {
	resolve := func(name string) string {
		if name == "" || filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(config.CookiesDir, name)
	}

	return &CredentialRegistry{
		ProjectFile: resolve(config.ProjectCookieFile),
		PlatformFiles: map[Platform]string{
			PlatformYouTube: resolve(config.YouTubeCookieFile),
			PlatformTikTok:  resolve(config.TikTokCookieFile),
		},
		BrowserPolicy: DefaultBrowserPolicy(),
		GOOS:          runtime.GOOS,
	}
}

// SourcesFor returns the ordered credential sources for a platform. Files are checked
// for existence on every call; the result always ends with NoCredentials.
func (r *CredentialRegistry) SourcesFor(p Platform) []CredentialSource {
	sources := make([]CredentialSource, 0, 4)

	if r.ProjectFile != "" && FileExists(r.ProjectFile) {
		sources = append(sources, CookieFile{Path: r.ProjectFile})
	}

	if path := r.PlatformFiles[p]; path != "" && path != r.ProjectFile && FileExists(path) {
		sources = append(sources, CookieFile{Path: path})
	}

	if browser := r.BrowserPolicy[p][r.GOOS]; browser != "" {
		sources = append(sources, BrowserCookies{Browser: browser})
	}

	return append(sources, NoCredentials{})
}

// CookieFiles lists every configured cookie file location with its platform
func (r *CredentialRegistry) CookieFiles() map[string]string {
	files := map[string]string{}
	if r.ProjectFile != "" {
		files["project"] = r.ProjectFile
	}
	for p, path := range r.PlatformFiles {
		if path != "" {
			files[p.String()] = path
		}
	}
	return files
}
