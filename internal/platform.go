package internal

import (
	"net/url"
	"strings"
)

// Platform identifies the site a media URL belongs to
type Platform int

const (
	PlatformOther Platform = iota
	PlatformYouTube
	PlatformTikTok
)

// String returns the platform name
func (p Platform) String() string {
	switch p {
	case PlatformYouTube:
		return "youtube"
	case PlatformTikTok:
		return "tiktok"
	default:
		return "other"
	}
}

// DetectPlatform maps a URL to a known platform by host name
func DetectPlatform(rawURL string) Platform {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return PlatformOther
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case hostMatches(host, "youtube.com"), host == "youtu.be", hostMatches(host, "youtube-nocookie.com"):
		return PlatformYouTube
	case hostMatches(host, "tiktok.com"):
		return PlatformTikTok
	default:
		return PlatformOther
	}
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
