package internal

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var timestampPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\.(\d+))?`)

// ParseTimestamp converts "[HH:MM:SS]", "MM:SS" and friends, optionally with a fractional
// part, to seconds. The first timestamp-looking fragment in s is used.
func ParseTimestamp(s string) (float64, bool) {
	m := timestampPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	first, _ := strconv.ParseFloat(m[1], 64)
	second, _ := strconv.ParseFloat(m[2], 64)

	var total float64
	if m[3] != "" {
		third, _ := strconv.ParseFloat(m[3], 64)
		total = first*3600 + second*60 + third
	} else {
		total = first*60 + second
	}

	if m[4] != "" {
		frac, _ := strconv.ParseFloat("0."+m[4], 64)
		total += frac
	}
	return total, true
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

// ExtractVideoID returns the YouTube video ID of a watch, short, embed, live or youtu.be URL
func ExtractVideoID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", false
	}

	switch u.Hostname() {
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		return id, id != ""
	case "www.youtube.com", "youtube.com", "m.youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			id := u.Query().Get("v")
			return id, id != ""
		}
		for _, prefix := range []string{"/embed/", "/v/", "/live/", "/shorts/"} {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				id, _, _ := strings.Cut(rest, "/")
				return id, id != ""
			}
		}
	}
	return "", false
}

// URLWithTimestamp returns a link that starts playback at seconds. Only YouTube supports
// this; other URLs are returned unchanged.
func URLWithTimestamp(rawURL string, seconds float64, autoplay bool) string {
	id, ok := ExtractVideoID(rawURL)
	if !ok || seconds < 0 {
		return rawURL
	}

	timed := fmt.Sprintf("https://www.youtube.com/embed/%s?start=%d", id, int(seconds))
	if autoplay {
		timed += "&autoplay=1&mute=1"
	}
	return timed
}
