package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// maxRetries bounds the extractor's own retries for transient network errors
const maxRetries = 5

const (
	audioFormat       = "bestaudio/best"
	previewFormat     = "best[ext=mp4]/best"
	audioPostArgs     = "ExtractAudio:-ac 1 -ar 16000"
	youtubeClientArgs = "youtube:player_client=ios,android,web"
)

// AcquisitionRequest asks for one asset of one URL. OutputBase is the extension-less
// path the asset is written to.
type AcquisitionRequest struct {
	URL        string
	Kind       AssetKind
	OutputBase string

	cacheKey string
	local    bool
}

// AttemptConfig pairs a credential source with an optional fingerprint. Headers are
// filled in when the attempt runs.
type AttemptConfig struct {
	Source      CredentialSource
	Fingerprint *FingerprintProfile
	Headers     map[string]string
}

func (c AttemptConfig) fingerprintName() string {
	if c.Fingerprint == nil {
		return "none"
	}
	return c.Fingerprint.Target()
}

// SourceProvider enumerates credential sources for a platform
type SourceProvider interface {
	SourcesFor(p Platform) []CredentialSource
}

// EngineSettings tunes attempts
type EngineSettings struct {
	AudioTimeout   time.Duration
	PreviewTimeout time.Duration
	Retries        int
	// AttemptTimeout bounds a whole attempt; zero leaves it to the socket timeout
	AttemptTimeout   time.Duration
	DedupeInflight   bool
	WriteDiagnostics bool
}

// DefaultEngineSettings returns the settings used when nothing is configured
func DefaultEngineSettings() EngineSettings {
	return EngineSettings{
		AudioTimeout:     60 * time.Second,
		PreviewTimeout:   15 * time.Second,
		Retries:          maxRetries,
		WriteDiagnostics: true,
	}
}

// Engine turns media URLs into local assets using a credential × fingerprint fallback
// matrix, a mirror of last resort, and a content-addressed cache
type Engine struct {
	extractor    Extractor
	sources      SourceProvider
	cache        *Cache
	fingerprints func(Platform) []FingerprintProfile
	mirror       Mirror
	media        *Audio
	settings     EngineSettings
	inflight     singleflight.Group
	log          *zap.SugaredLogger
}

// EngineOption customizes Engine creation
type EngineOption func(*Engine)

// WithMirror sets the mirror used after the matrix is exhausted
func WithMirror(m Mirror) EngineOption {
	return func(e *Engine) {
		e.mirror = m
	}
}

// WithFingerprints replaces the fingerprint table
func WithFingerprints(fn func(Platform) []FingerprintProfile) EngineOption {
	return func(e *Engine) {
		e.fingerprints = fn
	}
}

// WithSettings sets attempt tuning
func WithSettings(s EngineSettings) EngineOption {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithLogger sets the engine logger
func WithLogger(l *zap.SugaredLogger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithMedia sets the ffmpeg wrapper used to convert local files
func WithMedia(a *Audio) EngineOption {
	return func(e *Engine) {
		e.media = a
	}
}

// NewEngine creates an acquisition engine
func NewEngine(extractor Extractor, sources SourceProvider, cache *Cache, options ...EngineOption) *Engine {
	e := &Engine{
		extractor:    extractor,
		sources:      sources,
		cache:        cache,
		fingerprints: FingerprintsFor,
		settings:     DefaultEngineSettings(),
		log:          zap.S().Named("acquire"),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Request builds an AcquisitionRequest for a URL or a local media file
func (e *Engine) Request(input string, kind AssetKind) (AcquisitionRequest, error) {
	parsed := ParseInput(input)
	if !parsed.IsValid() {
		return AcquisitionRequest{}, parsed.Error
	}

	req := AcquisitionRequest{URL: parsed.Normalized, Kind: kind, cacheKey: parsed.Normalized}
	if parsed.Type == InputLocalFile {
		key, err := FileKey(parsed.Normalized)
		if err != nil {
			return AcquisitionRequest{}, err
		}
		req.cacheKey = key
		req.local = true
	}
	req.OutputBase = e.cache.OutputBase(req.cacheKey, kind)
	return req, nil
}

// Plan builds the ordered attempt matrix for a platform. File sources are never
// spoofed, the list ends with an unauthenticated unspoofed attempt, and duplicates
// are removed keeping the first occurrence.
func (e *Engine) Plan(p Platform) []AttemptConfig {
	fingerprints := e.fingerprints(p)
	seen := map[string]bool{}
	var plan []AttemptConfig

	add := func(src CredentialSource, fp *FingerprintProfile) {
		cfg := AttemptConfig{Source: src, Fingerprint: fp}
		key := src.Name() + "|" + cfg.fingerprintName()
		if seen[key] {
			return
		}
		seen[key] = true
		plan = append(plan, cfg)
	}

	for _, src := range e.sources.SourcesFor(p) {
		if !src.Spoofable() || len(fingerprints) == 0 {
			add(src, nil)
			continue
		}
		for i := range fingerprints {
			add(src, &fingerprints[i])
		}
	}
	add(NoCredentials{}, nil)

	return plan
}

// Acquire produces the requested asset or the most informative failure. It never panics
// on acquisition failure and always returns an Outcome.
func (e *Engine) Acquire(ctx context.Context, req AcquisitionRequest) Outcome {
	if req.cacheKey == "" {
		req.cacheKey = req.URL
	}
	if req.OutputBase == "" {
		req.OutputBase = e.cache.OutputBase(req.cacheKey, req.Kind)
	}

	if !e.settings.DedupeInflight {
		return e.acquire(ctx, req)
	}

	// Followers share the leader's work, so one caller cancelling must not fail the rest.
	key := req.Kind.prefix() + ":" + e.cache.Key(req.cacheKey)
	v, _, shared := e.inflight.Do(key, func() (any, error) {
		return e.acquire(context.WithoutCancel(ctx), req), nil
	})
	outcome := v.(Outcome)
	if shared {
		e.log.Debugw("shared in-flight acquisition", "url", req.URL, "kind", req.Kind)
	}
	return outcome
}

func (e *Engine) acquire(ctx context.Context, req AcquisitionRequest) Outcome {
	log := e.log.With("request_id", uuid.NewString(), "url", req.URL, "kind", req.Kind.String())
	outcome := Outcome{URL: req.URL, Kind: req.Kind}

	if path, ok := e.cache.Get(req.cacheKey, req.Kind); ok {
		log.Debugw("cache hit", "path", path)
		outcome.Path = path
		outcome.FromCache = true
		return outcome
	}

	if req.local {
		return e.acquireLocal(ctx, req, log)
	}

	clearOutputs(req.OutputBase, req.Kind)

	platform := DetectPlatform(req.URL)
	probe := func(*ExtractResult) (string, bool) {
		return probeOutput(req.OutputBase, req.Kind)
	}
	outcome, best := e.runMatrix(ctx, req, platform, false, probe, log)
	if outcome.OK() || outcome.Class == ClassPermissionDenied {
		e.finish(req, &outcome, log)
		return outcome
	}

	mirrorTried := false
	if e.mirror != nil && e.mirror.Supports(platform) && ctx.Err() == nil {
		mirrorTried = true
		log.Infow("primary attempts exhausted, trying mirror", "attempts", outcome.Attempts)
		path, err := e.mirror.Fetch(ctx, req.URL, req.Kind, req.OutputBase)
		if err == nil {
			outcome.Path = path
			outcome.FromMirror = true
			e.finish(req, &outcome, log)
			return outcome
		}
		log.Warnw("mirror failed", "error", err)
		clearOutputs(req.OutputBase, req.Kind)
		outcome.Records = append(outcome.Records, AttemptRecord{
			Source:      "mirror",
			Fingerprint: "none",
			Class:       ClassMirrorExhausted,
			Message:     err.Error(),
		})
	}

	switch {
	case best.set:
		outcome.Class, outcome.Message = best.class, best.message
		if mirrorTried {
			outcome.Message += " (mirror fallback also failed)"
		}
	case mirrorTried:
		outcome.Class = ClassMirrorExhausted
		outcome.Message = "all download methods failed, including the mirror"
	default:
		outcome.Class = ClassTransient
		outcome.Message = "no download attempt completed"
	}
	outcome.Hint = RemediationHint(outcome.Class, outcome.Message)

	e.finish(req, &outcome, log)
	return outcome
}

// runMatrix executes the plan in order until one attempt succeeds. onSuccess decides
// whether a successful extraction actually produced what was asked for. A permission
// failure on a browser credential store stops the loop and is returned as the outcome.
func (e *Engine) runMatrix(
	ctx context.Context,
	req AcquisitionRequest,
	platform Platform,
	metadataOnly bool,
	onSuccess func(*ExtractResult) (string, bool),
	log *zap.SugaredLogger,
) (Outcome, failure) {
	outcome := Outcome{URL: req.URL, Kind: req.Kind}
	var best failure

	for _, cfg := range e.Plan(platform) {
		if err := ctx.Err(); err != nil {
			best.observe(ClassTransient, err.Error())
			break
		}

		cfg.Headers = requestHeaders(platform, req.Kind, cfg.Fingerprint)
		job := e.job(req, cfg, metadataOnly)

		start := time.Now()
		result, err := e.extract(ctx, job)
		outcome.Attempts++

		if err == nil {
			if path, ok := onSuccess(result); ok {
				log.Infow("attempt succeeded",
					"source", cfg.Source.Name(),
					"fingerprint", cfg.fingerprintName(),
					"duration", time.Since(start),
				)
				outcome.Path = path
				return outcome, best
			}
			err = &ExtractError{Class: ClassTransient, Message: "extraction finished without producing the expected output"}
		}

		if !metadataOnly {
			clearOutputs(req.OutputBase, req.Kind)
		}

		class := Classify(err)
		if class == ClassPermissionDenied {
			if _, browser := cfg.Source.(BrowserCookies); !browser {
				class = ClassTransient
			}
		}
		msg := StripANSI(err.Error())

		outcome.Records = append(outcome.Records, AttemptRecord{
			Source:      cfg.Source.Name(),
			Fingerprint: cfg.fingerprintName(),
			Class:       class,
			Message:     msg,
			Duration:    time.Since(start),
		})
		log.Warnw("attempt failed",
			"source", cfg.Source.Name(),
			"fingerprint", cfg.fingerprintName(),
			"class", class.String(),
			"error", truncate(firstLine(msg), 200),
		)

		if class == ClassPermissionDenied {
			outcome.Class = ClassPermissionDenied
			outcome.Message = msg
			outcome.Hint = RemediationHint(ClassPermissionDenied, msg)
			return outcome, best
		}
		best.observe(class, msg)
	}

	return outcome, best
}

func (e *Engine) extract(ctx context.Context, job ExtractJob) (*ExtractResult, error) {
	if e.settings.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.settings.AttemptTimeout)
		defer cancel()
	}
	return e.extractor.Extract(ctx, job)
}

// job translates an attempt configuration into the extractor's configuration bag
func (e *Engine) job(req AcquisitionRequest, cfg AttemptConfig, metadataOnly bool) ExtractJob {
	job := ExtractJob{
		URL:            req.URL,
		OutputTemplate: req.OutputBase + ".%(ext)s",
		Retries:        min(e.settings.Retries, maxRetries),
		Headers:        cfg.Headers,
		ExtractorArgs:  youtubeClientArgs,
		MetadataOnly:   metadataOnly,
	}
	if cfg.Fingerprint != nil {
		job.Impersonate = cfg.Fingerprint.Target()
	}

	switch req.Kind {
	case AssetPreview:
		job.Format = previewFormat
		job.Timeout = e.settings.PreviewTimeout
	default:
		job.Format = audioFormat
		job.Timeout = e.settings.AudioTimeout
		job.ExtractAudio = true
		job.AudioFormat = "wav"
		job.PostProcessorArgs = audioPostArgs
	}

	cfg.Source.Apply(&job)
	return job
}

// acquireLocal converts an uploaded media file without touching the network
func (e *Engine) acquireLocal(ctx context.Context, req AcquisitionRequest, log *zap.SugaredLogger) Outcome {
	outcome := Outcome{URL: req.URL, Kind: req.Kind, Attempts: 1}

	if req.Kind == AssetPreview {
		outcome.Path = req.URL
		e.cache.Put(req.cacheKey, req.Kind, req.URL)
		return outcome
	}

	if e.media == nil {
		outcome.Class = ClassTransient
		outcome.Message = "no media converter configured for local files"
		outcome.Hint = RemediationHint(outcome.Class, outcome.Message)
		return outcome
	}

	path := req.OutputBase + ".wav"
	if err := e.media.ToWAV(ctx, req.URL, path); err != nil {
		log.Warnw("converting local file failed", "error", err)
		_ = os.Remove(path)
		outcome.Class = Classify(err)
		outcome.Message = err.Error()
		outcome.Hint = RemediationHint(outcome.Class, outcome.Message)
		return outcome
	}

	outcome.Path = path
	e.cache.Put(req.cacheKey, req.Kind, path)
	return outcome
}

// finish records successes in the cache and persists a diagnostic for failures
func (e *Engine) finish(req AcquisitionRequest, outcome *Outcome, log *zap.SugaredLogger) {
	sidecar := req.OutputBase + ".error"

	if outcome.OK() {
		e.cache.Put(req.cacheKey, req.Kind, outcome.Path)
		_ = os.Remove(sidecar)
		log.Infow("acquired", "path", outcome.Path, "attempts", outcome.Attempts, "mirror", outcome.FromMirror)
		return
	}

	log.Errorw("acquisition failed",
		"class", outcome.Class.String(),
		"attempts", outcome.Attempts,
		"error", truncate(firstLine(outcome.Message), 200),
	)
	if !e.settings.WriteDiagnostics {
		return
	}
	if err := writeDiagnostic(sidecar, outcome); err != nil {
		log.Warnw("writing diagnostic failed", "path", sidecar, "error", err)
	}
}

// writeDiagnostic persists a human-readable failure report next to the output path
func writeDiagnostic(path string, outcome *Outcome) error {
	var attempts error
	for _, r := range outcome.Records {
		prefix := fmt.Sprintf("[%s %s] %s:", r.Source, r.Fingerprint, r.Class)
		attempts = multierror.Append(attempts, multierror.Prefix(errors.New(firstLine(r.Message)), prefix))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", time.Now().Format(time.TimeOnly), outcome.Message)
	fmt.Fprintf(&b, "class: %s\n", outcome.Class)
	if outcome.Hint != "" {
		fmt.Fprintf(&b, "hint: %s\n", outcome.Hint)
	}
	if attempts != nil {
		b.WriteString(attempts.Error())
	}

	if err := EnsureDirs(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// Info looks up video metadata through the same fallback matrix, then the mirror
func (e *Engine) Info(ctx context.Context, rawURL string) (*VideoInfo, Outcome) {
	req := AcquisitionRequest{URL: rawURL, Kind: AssetPreview, cacheKey: rawURL}
	req.OutputBase = e.cache.OutputBase(rawURL, AssetPreview)
	log := e.log.With("request_id", uuid.NewString(), "url", rawURL, "op", "info")
	platform := DetectPlatform(rawURL)

	var info *VideoInfo
	parse := func(res *ExtractResult) (string, bool) {
		parsed, err := ParseVideoInfo(res.Output)
		if err != nil {
			log.Debugw("unparseable metadata", "error", err)
			return "", false
		}
		info = parsed
		return rawURL, true
	}

	outcome, best := e.runMatrix(ctx, req, platform, true, parse, log)
	if outcome.OK() || outcome.Class == ClassPermissionDenied {
		return info, outcome
	}

	if im, ok := e.mirror.(interface {
		Info(context.Context, string) (*VideoInfo, error)
	}); ok && e.mirror.Supports(platform) {
		mirrored, err := im.Info(ctx, rawURL)
		if err == nil {
			outcome.Path = rawURL
			outcome.FromMirror = true
			return mirrored, outcome
		}
		log.Warnw("mirror info failed", "error", err)
	}

	outcome.Class, outcome.Message = ClassTransient, "no metadata lookup completed"
	if best.set {
		outcome.Class, outcome.Message = best.class, best.message
	}
	outcome.Hint = RemediationHint(outcome.Class, outcome.Message)
	return nil, outcome
}

// Probe tries every fingerprint for a URL anonymously with a metadata-only extraction
// and reports how each one fared
func (e *Engine) Probe(ctx context.Context, rawURL string) []AttemptRecord {
	platform := DetectPlatform(rawURL)
	fingerprints := e.fingerprints(platform)

	configs := make([]AttemptConfig, 0, len(fingerprints)+1)
	for i := range fingerprints {
		configs = append(configs, AttemptConfig{Source: NoCredentials{}, Fingerprint: &fingerprints[i]})
	}
	configs = append(configs, AttemptConfig{Source: NoCredentials{}})

	req := AcquisitionRequest{URL: rawURL, Kind: AssetPreview}
	records := make([]AttemptRecord, 0, len(configs))
	for _, cfg := range configs {
		if ctx.Err() != nil {
			break
		}
		cfg.Headers = requestHeaders(platform, req.Kind, cfg.Fingerprint)
		start := time.Now()
		_, err := e.extract(ctx, e.job(req, cfg, true))

		record := AttemptRecord{
			Source:      cfg.Source.Name(),
			Fingerprint: cfg.fingerprintName(),
			Class:       Classify(err),
			Duration:    time.Since(start),
		}
		if err != nil {
			record.Message = StripANSI(err.Error())
		}
		records = append(records, record)
	}
	return records
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
