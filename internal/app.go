package internal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// App holds the application state and dependencies
type App struct {
	config    *Config
	extractor Extractor
	searcher  Searcher
	mirror    Mirror
	media     *Audio
	history   *History
	cache     *Cache
	registry  *CredentialRegistry
	engine    *Engine
	ui        UIManager
	log       *zap.SugaredLogger
}

// AppOption customizes App creation
type AppOption func(*App)

// WithExtractor sets a custom extraction mechanism
func WithExtractor(extractor Extractor) AppOption {
	return func(a *App) {
		a.extractor = extractor
	}
}

// WithSearcher sets a custom related-video searcher
func WithSearcher(searcher Searcher) AppOption {
	return func(a *App) {
		a.searcher = searcher
	}
}

// WithAppMirror sets the mirror fallback, or disables it when nil
func WithAppMirror(mirror Mirror) AppOption {
	return func(a *App) {
		a.mirror = mirror
	}
}

// WithHistory sets the history store
func WithHistory(history *History) AppOption {
	return func(a *App) {
		a.history = history
	}
}

// WithUI sets a custom UI manager
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) *App {
	ytdlp := NewYTDLP()

	app := &App{
		config:    config,
		extractor: ytdlp,
		searcher:  ytdlp,
		media:     NewAudio(&DefaultCommandRunner{}),
		cache:     NewCache(config.AssetsDir, config.NormalizeCacheKeys),
		registry:  NewCredentialRegistry(config),
		ui:        NewUIManager(config.Verbose, config.Quiet),
		log:       zap.S().Named("app"),
	}
	if config.MirrorEnabled {
		app.mirror = NewTikWMMirror(config.MirrorEndpoint, NewMirrorClient(mirrorDownloadTimeout), config.MirrorRPS)
	}

	for _, option := range options {
		option(app)
	}

	if app.history == nil {
		history, err := OpenHistory(config.DataDir)
		if err != nil {
			app.log.Warnw("history disabled", "error", err)
		} else {
			app.history = history
		}
	}

	engineOptions := []EngineOption{
		WithSettings(config.EngineSettings()),
		WithMedia(app.media),
	}
	if app.mirror != nil {
		engineOptions = append(engineOptions, WithMirror(app.mirror))
	}
	app.engine = NewEngine(app.extractor, app.registry, app.cache, engineOptions...)

	return app
}

// Close releases resources held by the app
func (app *App) Close() error {
	if app.history != nil {
		return app.history.Close()
	}
	return nil
}

// Usage returns today's successful acquisitions and the configured limit
func (app *App) Usage(ctx context.Context) (int, int, error) {
	if app.history == nil {
		return 0, app.config.DailyLimit, nil
	}
	used, err := app.history.TodayUsage(ctx)
	return used, app.config.DailyLimit, err
}

func (app *App) checkQuota(ctx context.Context) error {
	if app.history == nil {
		return nil
	}
	_, err := app.history.CheckQuota(ctx, app.config.DailyLimit)
	if errors.Is(err, ErrDailyLimitReached) {
		return err
	}
	if err != nil {
		app.log.Warnw("checking quota", "error", err)
	}
	return nil
}

func (app *App) record(ctx context.Context, outcome Outcome) {
	if app.history == nil || outcome.FromCache {
		return
	}
	if err := app.history.Record(ctx, outcome, ""); err != nil {
		app.log.Warnw("recording history", "error", err)
	}
}

// Acquire fetches one asset for a URL or local file, showing a spinner while it runs.
// The returned error is non-nil when the outcome failed or the quota is used up.
func (app *App) Acquire(ctx context.Context, input string, kind AssetKind) (Outcome, error) {
	if err := app.checkQuota(ctx); err != nil {
		return Outcome{URL: input, Kind: kind}, err
	}

	req, err := app.engine.Request(input, kind)
	if err != nil {
		return Outcome{URL: input, Kind: kind}, err
	}

	spinner := app.ui.NewSpinner(fmt.Sprintf("Fetching %s...", kind))
	outcome := app.engine.Acquire(ctx, req)
	spinner.Finish()

	app.record(ctx, outcome)
	return outcome, outcome.Err()
}

// AcquireAll fetches assets for several inputs on the worker pool. Outcomes are
// returned in input order; invalid inputs yield failed outcomes.
func (app *App) AcquireAll(ctx context.Context, inputs []string, kind AssetKind) ([]Outcome, error) {
	if err := app.checkQuota(ctx); err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(inputs))
	var reqs []AcquisitionRequest
	var positions []int
	for i, input := range inputs {
		req, err := app.engine.Request(input, kind)
		if err != nil {
			outcomes[i] = Outcome{URL: input, Kind: kind, Class: ClassActionable, Message: err.Error(), Hint: "Check the URL or file path."}
			continue
		}
		reqs = append(reqs, req)
		positions = append(positions, i)
	}

	bar := app.ui.NewProgressBar(len(reqs), fmt.Sprintf("Fetching %s", kind))
	for res := range app.engine.AcquireAll(ctx, reqs, app.config.Workers) {
		outcomes[positions[res.Index]] = res.Outcome
		app.record(ctx, res.Outcome)
		bar.Advance()
	}
	bar.Finish()

	return outcomes, nil
}

// Info returns metadata for a URL
func (app *App) Info(ctx context.Context, rawURL string) (*VideoInfo, error) {
	parsed := ParseInput(rawURL)
	if !parsed.IsValid() {
		return nil, parsed.Error
	}

	if parsed.Type == InputLocalFile {
		duration, err := app.media.Duration(ctx, parsed.Normalized)
		if err != nil {
			return nil, err
		}
		return &VideoInfo{Title: parsed.Normalized, Duration: duration, Platform: "local"}, nil
	}

	spinner := app.ui.NewSpinner("Fetching metadata...")
	info, outcome := app.engine.Info(ctx, parsed.Normalized)
	spinner.Finish()

	if err := outcome.Err(); err != nil {
		return nil, err
	}
	return info, nil
}

// Search finds videos matching a query
func (app *App) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	return app.searcher.Search(ctx, query, maxResults)
}

// Related searches for videos related to an analysis document and returns the
// query it derived
func (app *App) Related(ctx context.Context, analysis, title string, maxResults int) (string, []SearchResult, error) {
	return RelatedVideos(ctx, app.searcher, analysis, title, maxResults)
}

// History returns recent acquisitions
func (app *App) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if app.history == nil {
		return nil, fmt.Errorf("history is not available")
	}
	return app.history.Recent(ctx, limit)
}

// CookieStatus inspects every configured cookie file
func (app *App) CookieStatus() []CookieFileStatus {
	files := app.registry.CookieFiles()
	labels := make([]string, 0, len(files))
	for label := range files {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	now := time.Now()
	statuses := make([]CookieFileStatus, 0, len(labels))
	for _, label := range labels {
		statuses = append(statuses, InspectCookieFile(label, files[label], now))
	}
	return statuses
}

// ImportCookies stores an exported cookies.txt under its conventional name
func (app *App) ImportCookies(path string) (string, Platform, error) {
	return ImportCookieFile(path, app.registry)
}

// CleanCache removes every cached asset
func (app *App) CleanCache() (int, error) {
	if err := CleanupPartialDownloads(app.cache.Dir()); err != nil {
		return 0, err
	}
	return app.cache.Purge()
}

// CachedAssets lists cached asset files
func (app *App) CachedAssets() ([]string, error) {
	return app.cache.Entries()
}

// Diagnose probes a URL with every fingerprint and returns a markdown report
func (app *App) Diagnose(ctx context.Context, rawURL string) (string, error) {
	parsed := ParseInput(rawURL)
	if !parsed.IsValid() || parsed.Type != InputURL {
		return "", fmt.Errorf("diagnose needs a URL: %q", rawURL)
	}

	platform := DetectPlatform(parsed.Normalized)
	spinner := app.ui.NewSpinner("Probing fingerprints...")
	records := app.engine.Probe(ctx, parsed.Normalized)
	spinner.Finish()

	var b strings.Builder
	fmt.Fprintf(&b, "# Diagnosis for %s\n\n", parsed.Normalized)
	fmt.Fprintf(&b, "Platform: **%s**\n\n", platform)

	b.WriteString("## Attempt plan\n\n")
	for i, cfg := range app.engine.Plan(platform) {
		fmt.Fprintf(&b, "%d. `%s` with fingerprint `%s`\n", i+1, cfg.Source.Name(), cfg.fingerprintName())
	}

	b.WriteString("\n## Fingerprint probes\n\n")
	b.WriteString("| Fingerprint | Result | Time | Detail |\n|---|---|---|---|\n")
	for _, r := range records {
		result := "ok"
		if r.Class != ClassNone {
			result = r.Class.String()
		}
		detail := strings.ReplaceAll(truncate(firstLine(r.Message), 80), "|", "\\|")
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", r.Fingerprint, result, r.Duration.Round(time.Millisecond), detail)
	}

	b.WriteString("\n## Cookie files\n\n")
	for _, s := range app.CookieStatus() {
		switch {
		case s.Err != nil:
			fmt.Fprintf(&b, "- %s: `%s` unreadable (%v)\n", s.Label, s.Path, s.Err)
		case !s.Exists:
			fmt.Fprintf(&b, "- %s: `%s` missing\n", s.Label, s.Path)
		default:
			fmt.Fprintf(&b, "- %s: `%s` %d cookies, %d expired\n", s.Label, s.Path, s.Total, s.Expired)
		}
	}

	return b.String(), nil
}
