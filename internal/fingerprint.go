package internal

import "slices"

const (
	safari18UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0 Safari/605.1.15"
	safari17UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"

	// DefaultUserAgent is sent when no fingerprint is spoofed
	DefaultUserAgent = safari18UserAgent

	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
	defaultAcceptLanguage = "en-US,en;q=0.9"
)

// FingerprintProfile describes a browser to impersonate
type FingerprintProfile struct {
	Client    string
	Version   string
	OS        string
	OSVersion string
	UserAgent string
}

// Target renders the profile in yt-dlp's impersonation syntax, e.g. "safari-18.0:macos-15"
func (f FingerprintProfile) Target() string {
	target := f.Client
	if f.Version != "" {
		target += "-" + f.Version
	}
	if f.OS != "" {
		target += ":" + f.OS
		if f.OSVersion != "" {
			target += "-" + f.OSVersion
		}
	}
	return target
}

func (f FingerprintProfile) String() string {
	return f.Target()
}

// safariRotation is ordered most current first, generic last
var safariRotation = []FingerprintProfile{
	{Client: "safari", Version: "18.0", OS: "macos", OSVersion: "15", UserAgent: safari18UserAgent},
	{Client: "safari", Version: "17.0", OS: "macos", OSVersion: "14", UserAgent: safari17UserAgent},
	{Client: "safari", UserAgent: safari18UserAgent},
}

// FingerprintsFor returns the impersonation rotation for a platform.
// Platforms that do not need spoofing get an empty table.
func FingerprintsFor(p Platform) []FingerprintProfile {
	switch p {
	case PlatformYouTube, PlatformTikTok:
		return slices.Clone(safariRotation)
	default:
		return nil
	}
}

// requestHeaders builds the headers sent with an attempt
func requestHeaders(p Platform, kind AssetKind, fp *FingerprintProfile) map[string]string {
	ua := DefaultUserAgent
	if fp != nil && fp.UserAgent != "" {
		ua = fp.UserAgent
	}

	referer := "https://www.google.com/"
	if p == PlatformTikTok && kind == AssetPreview {
		referer = "https://www.tiktok.com/"
	}

	return map[string]string{
		"User-Agent":      ua,
		"Accept":          defaultAccept,
		"Accept-Language": defaultAcceptLanguage,
		"Referer":         referer,
	}
}
