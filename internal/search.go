package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// SearchResult is one related-video hit
type SearchResult struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Duration  string `json:"duration"`
	Views     int64  `json:"views"`
	Platform  string `json:"platform"`
}

// Search runs a yt-dlp "ytsearchN:" query
func (y *YTDLP) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dl := ytdlp.New().
		DumpJSON().
		NoPlaylist().
		Quiet().
		SkipDownload()

	result, err := dl.Run(ctx, fmt.Sprintf("ytsearch%d:%s", maxResults, query))
	if err != nil {
		if result != nil {
			y.log.Debugw("search failed", "query", query, "stderr", result.Stderr)
		}
		return nil, fmt.Errorf("searching videos: %w", err)
	}

	return parseSearchLines(result.Stdout), nil
}

// parseSearchLines decodes one JSON document per line, skipping lines that do not parse
func parseSearchLines(output string) []SearchResult {
	var results []SearchResult
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var raw struct {
			Title          string `json:"title"`
			WebpageURL     string `json:"webpage_url"`
			Thumbnail      string `json:"thumbnail"`
			DurationString string `json:"duration_string"`
			ViewCount      int64  `json:"view_count"`
		}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}
		results = append(results, SearchResult{
			Title:     raw.Title,
			URL:       raw.WebpageURL,
			Thumbnail: raw.Thumbnail,
			Duration:  raw.DurationString,
			Views:     raw.ViewCount,
			Platform:  "YouTube",
		})
	}

	return results
}

// RelatedVideos searches for videos related to an analysis document
func RelatedVideos(ctx context.Context, searcher Searcher, analysis, title string, maxResults int) (string, []SearchResult, error) {
	query := SearchQueryFromAnalysis(analysis, title)
	if query == "" {
		return "", nil, fmt.Errorf("no search query could be derived")
	}
	results, err := searcher.Search(ctx, query, maxResults)
	return query, results, err
}
