package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// trackingParams are stripped from URLs before hashing when key normalization is on
var trackingParams = map[string]bool{
	"si":             true,
	"feature":        true,
	"fbclid":         true,
	"gclid":          true,
	"is_from_webapp": true,
	"sender_device":  true,
	"_t":             true,
	"_r":             true,
}

// CacheEntry is what the cache remembers for a key
type CacheEntry struct {
	Path string
	Kind AssetKind
}

// Cache maps a hash of the request URL to a previously downloaded asset.
// Lookups are existence based over conventional file names; the in-process map only
// remembers the last path written for a key. Entries are never invalidated.
type Cache struct {
	dir       string
	normalize bool
	entries   sync.Map // key -> CacheEntry
}

// NewCache creates a cache rooted at dir
func NewCache(dir string, normalizeKeys bool) *Cache {
	return &Cache{dir: dir, normalize: normalizeKeys}
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.dir
}

// Key derives the cache key for a URL: the sha256 of the exact string, or of the URL
// with tracking parameters removed when normalization is enabled
func (c *Cache) Key(rawURL string) string {
	if c.normalize {
		rawURL = NormalizeURL(rawURL)
	}
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// OutputBase is the extension-less path an asset for this URL is written to
func (c *Cache) OutputBase(rawURL string, kind AssetKind) string {
	return filepath.Join(c.dir, kind.prefix()+"_"+c.Key(rawURL))
}

// Get returns the cached asset for a URL if one exists on disk
func (c *Cache) Get(rawURL string, kind AssetKind) (string, bool) {
	key := c.entryKey(rawURL, kind)
	if v, ok := c.entries.Load(key); ok {
		entry := v.(CacheEntry)
		if FileExists(entry.Path) {
			return entry.Path, true
		}
	}

	if path, ok := probeOutput(c.OutputBase(rawURL, kind), kind); ok {
		c.entries.Store(key, CacheEntry{Path: path, Kind: kind})
		return path, true
	}
	return "", false
}

// Put records a downloaded asset. Concurrent writers race benignly; the last one wins.
func (c *Cache) Put(rawURL string, kind AssetKind, path string) {
	c.entries.Store(c.entryKey(rawURL, kind), CacheEntry{Path: path, Kind: kind})
}

// Entries lists the asset files currently in the cache directory
func (c *Cache) Entries() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(name, AssetAudio.prefix()+"_") || strings.HasPrefix(name, AssetPreview.prefix()+"_") {
			files = append(files, filepath.Join(c.dir, name))
		}
	}
	return files, nil
}

// Purge removes every cached asset and diagnostic sidecar and forgets all entries
func (c *Cache) Purge() (int, error) {
	files, err := c.Entries()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return removed, fmt.Errorf("removing %s: %w", f, err)
		}
		removed++
	}
	c.entries.Clear()
	return removed, nil
}

func (c *Cache) entryKey(rawURL string, kind AssetKind) string {
	return kind.prefix() + ":" + c.Key(rawURL)
}

// NormalizeURL removes well known tracking parameters and the fragment from a URL.
// Unparseable input is returned unchanged.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}

	q := u.Query()
	for name := range q {
		if trackingParams[name] || strings.HasPrefix(name, "utm_") {
			q.Del(name)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// FileKey returns a content-derived key for a local media file, used as the cache
// identity of uploads
func FileKey(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return "file:" + hex.EncodeToString(h.Sum(nil)), nil
}

// clearOutputs removes any file at the conventional names for an output base, so a
// partial download is never mistaken for a finished one
func clearOutputs(outputBase string, kind AssetKind) {
	for _, ext := range kind.Extensions() {
		if err := os.Remove(outputBase + ext); err != nil && !os.IsNotExist(err) {
			zap.S().Named("cache").Warnw("removing partial output", "path", outputBase+ext, "error", err)
		}
	}
}

// probeOutput tries each expected extension against the output base
func probeOutput(outputBase string, kind AssetKind) (string, bool) {
	for _, ext := range kind.Extensions() {
		if path := outputBase + ext; FileExists(path) {
			return path, true
		}
	}
	return "", false
}
