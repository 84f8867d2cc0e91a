package internal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNoCookies is returned when a file holds no Netscape cookie lines
var ErrNoCookies = errors.New("no cookies found (expected Netscape cookies.txt format)")

const httpOnlyPrefix = "#HttpOnly_"

// ParseNetscapeCookies parses a Netscape cookies.txt file.
// Format: domain flag path secure expiration name value
func ParseNetscapeCookies(r io.Reader) ([]*http.Cookie, error) {
	var cookies []*http.Cookie
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
			httpOnly = true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 7 {
			continue
		}

		expiresUnix, _ := strconv.ParseInt(parts[4], 10, 64)
		cookie := &http.Cookie{
			Domain:   parts[0],
			Path:     parts[2],
			Secure:   strings.EqualFold(parts[3], "TRUE"),
			Name:     parts[5],
			Value:    parts[6],
			HttpOnly: httpOnly,
		}
		// 0 marks a session cookie
		if expiresUnix > 0 {
			cookie.Expires = time.Unix(expiresUnix, 0)
		}
		cookies = append(cookies, cookie)
	}

	return cookies, scanner.Err()
}

// CookiePlatform guesses which platform a cookie jar belongs to from its domains
func CookiePlatform(cookies []*http.Cookie) Platform {
	youtube := false
	for _, c := range cookies {
		domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
		switch {
		case hostMatches(domain, "tiktok.com"):
			return PlatformTikTok
		case hostMatches(domain, "youtube.com"):
			youtube = true
		}
	}
	if youtube {
		return PlatformYouTube
	}
	return PlatformOther
}

// CookieFileStatus summarizes a cookie file on disk
type CookieFileStatus struct {
	Label   string
	Path    string
	Exists  bool
	Total   int
	Expired int
	Err     error
}

// InspectCookieFile reads a cookie file and counts live and expired cookies
func InspectCookieFile(label, path string, now time.Time) CookieFileStatus {
	status := CookieFileStatus{Label: label, Path: path}
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			status.Err = err
		}
		return status
	}
	defer f.Close()

	status.Exists = true
	cookies, err := ParseNetscapeCookies(f)
	if err != nil {
		status.Err = err
		return status
	}
	status.Total = len(cookies)
	for _, c := range cookies {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			status.Expired++
		}
	}
	return status
}

// ImportCookieFile validates an exported cookies.txt and copies it to the conventional
// location for the platform its cookies belong to. Unrecognized jars become the
// project-wide cookie file.
func ImportCookieFile(src string, registry *CredentialRegistry) (string, Platform, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", PlatformOther, fmt.Errorf("reading cookie file: %w", err)
	}

	cookies, err := ParseNetscapeCookies(bytes.NewReader(data))
	if err != nil {
		return "", PlatformOther, fmt.Errorf("parsing cookie file: %w", err)
	}
	if len(cookies) == 0 {
		return "", PlatformOther, ErrNoCookies
	}

	platform := CookiePlatform(cookies)
	dest := registry.PlatformFiles[platform]
	if dest == "" {
		dest = registry.ProjectFile
	}
	if dest == "" {
		return "", platform, fmt.Errorf("no cookie file location configured for %s", platform)
	}

	if err := EnsureDirs(filepath.Dir(dest)); err != nil {
		return "", platform, fmt.Errorf("creating cookie directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0600); err != nil {
		return "", platform, fmt.Errorf("writing cookie file: %w", err)
	}

	return dest, platform, nil
}
