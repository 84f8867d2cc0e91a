package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
	log       *zap.SugaredLogger
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"mediafetch-server",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
		log:       zap.S().Named("mcp"),
	}

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("acquire_audio",
		mcp.WithDescription("Download the audio track of a video URL (YouTube, TikTok and most video sites) or convert a local media file, returning the path of a 16 kHz mono WAV (or the mirror's MP3). Tries saved cookies, browser cookies and browser fingerprints before falling back to a mirror. Failures include a hint the user can act on."),
		mcp.WithString("url",
			mcp.Description("Video URL or local media file path"),
			mcp.Required(),
		),
	), s.handleAcquire(AssetAudio))

	s.mcpServer.AddTool(mcp.NewTool("acquire_preview",
		mcp.WithDescription("Download a playable preview video (MP4 preferred) for a video URL and return its local path."),
		mcp.WithString("url",
			mcp.Description("Video URL"),
			mcp.Required(),
		),
	), s.handleAcquire(AssetPreview))

	s.mcpServer.AddTool(mcp.NewTool("get_video_info",
		mcp.WithDescription("Fetch video metadata (title, uploader, duration, platform) without downloading media."),
		mcp.WithString("url",
			mcp.Description("Video URL"),
			mcp.Required(),
		),
	), s.handleGetInfo)

	s.mcpServer.AddTool(mcp.NewTool("search_videos",
		mcp.WithDescription("Search YouTube for videos matching a query, e.g. to find videos related to one already processed."),
		mcp.WithString("query",
			mcp.Description("Free-text search query"),
			mcp.Required(),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results (default 3)"),
		),
	), s.handleSearch)

	s.mcpServer.AddTool(mcp.NewTool("related_videos",
		mcp.WithDescription("Find YouTube videos related to an analysis document. The query comes from its [TOPICS] section, then its [SUMMARY], then the title."),
		mcp.WithString("analysis",
			mcp.Description("Analysis text with [TOPICS] and [SUMMARY] sections"),
			mcp.Required(),
		),
		mcp.WithString("title",
			mcp.Description("Title of the analyzed video"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results (default 3)"),
		),
	), s.handleRelated)
}

// handleAcquire implements the acquire_audio and acquire_preview tools
func (s *MCPServer) handleAcquire(kind AssetKind) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url parameter is required and must be a string"), nil
		}

		s.log.Infow("tool call", "tool", "acquire_"+kind.String(), "url", url)
		outcome, err := s.app.Acquire(ctx, url, kind)
		if err != nil {
			s.log.Errorw("acquire failed", "url", url, "error", err)
			return mcp.NewToolResultError(formatFailure(outcome, err)), nil
		}

		var buf strings.Builder
		buf.WriteString(fmt.Sprintf("Path: %s\n", outcome.Path))
		buf.WriteString(fmt.Sprintf("Kind: %s\n", outcome.Kind))
		switch {
		case outcome.FromCache:
			buf.WriteString("Source: cache\n")
		case outcome.FromMirror:
			buf.WriteString("Source: mirror\n")
		default:
			buf.WriteString(fmt.Sprintf("Attempts: %d\n", outcome.Attempts))
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(buf.String())},
		}, nil
	}
}

// handleGetInfo implements the get_video_info tool
func (s *MCPServer) handleGetInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	info, err := s.app.Info(ctx, url)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("metadata error", err), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(FormatVideoInfo(info))},
	}, nil
}

// handleSearch implements the search_videos tool
func (s *MCPServer) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", 3)

	results, err := s.app.Search(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("search failed", err), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No videos found"), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(formatResults(results))},
	}, nil
}

// handleRelated implements the related_videos tool
func (s *MCPServer) handleRelated(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysis, err := request.RequireString("analysis")
	if err != nil {
		return mcp.NewToolResultError("analysis parameter is required and must be a string"), nil
	}
	title := request.GetString("title", "")
	maxResults := request.GetInt("max_results", 3)

	query, results, err := s.app.Related(ctx, analysis, title, maxResults)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("search failed", err), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No videos found for %q", query)), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf("Query: %s\n%s", query, formatResults(results)))},
	}, nil
}

func formatResults(results []SearchResult) string {
	var buf strings.Builder
	for i, r := range results {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)\n   %s\n", i+1, r.Title, r.Duration, r.URL))
	}
	return buf.String()
}

// formatFailure renders a failed acquisition with its remediation hint
func formatFailure(outcome Outcome, err error) string {
	var outcomeErr *OutcomeError
	if !errors.As(err, &outcomeErr) {
		return err.Error()
	}
	msg := fmt.Sprintf("Failed (%s) after %d attempt(s): %s", outcomeErr.Class, outcome.Attempts, firstLine(outcomeErr.Message))
	if outcomeErr.Hint != "" {
		msg += "\nHint: " + outcomeErr.Hint
	}
	return msg
}

// FormatVideoInfo renders metadata as plain text
func FormatVideoInfo(info *VideoInfo) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("Title: %s\n", info.Title))
	if info.Uploader != "" {
		buf.WriteString(fmt.Sprintf("Uploader: %s\n", info.Uploader))
	}
	buf.WriteString(fmt.Sprintf("Duration: %s\n", FormatTimestamp(info.Duration)))
	if info.Platform != "" {
		buf.WriteString(fmt.Sprintf("Platform: %s\n", info.Platform))
	}
	if info.WebpageURL != "" {
		buf.WriteString(fmt.Sprintf("URL: %s\n", info.WebpageURL))
	}
	if info.Thumbnail != "" {
		buf.WriteString(fmt.Sprintf("Thumbnail: %s\n", info.Thumbnail))
	}
	return buf.String()
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Infow("serving MCP over HTTP", "addr", addr)
		return httpServer.Start(addr)
	}

	s.log.Infow("serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}
