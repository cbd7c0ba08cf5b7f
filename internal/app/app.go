package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alphax/wordtrack/internal/cache"
	"github.com/alphax/wordtrack/internal/extract"
	"github.com/alphax/wordtrack/internal/fetch"
	"github.com/alphax/wordtrack/internal/goalcheck"
	"github.com/alphax/wordtrack/internal/llm"
	"github.com/alphax/wordtrack/internal/orchestrate"
	"github.com/alphax/wordtrack/internal/outline"
	"github.com/alphax/wordtrack/internal/report"
	"github.com/alphax/wordtrack/internal/retry"
	"github.com/alphax/wordtrack/internal/store"
)

// ErrOutlineNotConfigured is returned by Progress when no outline API base URL
// is set.
var ErrOutlineNotConfigured = errors.New("outline API base URL is not configured")

// App wires extraction, outline accounting, snapshots and goal validation
// from one Config.
type App struct {
	cfg        Config
	httpClient *http.Client
	fetcher    *fetch.Client
	orch       *orchestrate.Orchestrator
	outline    *outline.Client
	accountant *outline.Accountant
	checker    *goalcheck.Checker
	store      *store.Store
}

// New builds an App. The snapshot store is opened on first use.
func New(_ context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, httpClient: newHTTPClient()}

	var httpCache *cache.HTTPCache
	var llmCache *cache.LLMCache
	if dir := strings.TrimSpace(cfg.CacheDir); dir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(dir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Str("dir", dir).Msg("purged stale cache entries")
			}
		}
		httpCache = &cache.HTTPCache{Dir: filepath.Join(dir, "http"), StrictPerms: cfg.CacheStrictPerms}
		llmCache = &cache.LLMCache{Dir: filepath.Join(dir, "llm"), StrictPerms: cfg.CacheStrictPerms}
	}

	a.fetcher = &fetch.Client{
		HTTPClient:        a.httpClient,
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.PerRequestTimeout,
		Retry: retry.Policy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			Multiplier:  retry.Default.Multiplier,
			MaxDelay:    retry.Default.MaxDelay,
		},
		Cache:           httpCache,
		RedirectMaxHops: cfg.RedirectMaxHops,
	}
	a.orch = orchestrate.NewDefault(a.fetcher, cfg.OutlineToken, orchestrate.Options{
		GoodEnough: cfg.GoodEnoughWords,
		Budget:     cfg.Budget,
	})

	if strings.TrimSpace(cfg.OutlineBaseURL) != "" {
		a.outline = outline.NewClient(cfg.OutlineBaseURL, cfg.OutlineToken, a.httpClient)
		a.outline.UserAgent = cfg.UserAgent
		a.outline.PerRequestTimeout = cfg.PerRequestTimeout
		rl := retry.RateLimited
		if cfg.RateLimitAttempts > 0 {
			rl.MaxAttempts = cfg.RateLimitAttempts
		}
		delay := cfg.RequestDelay
		if delay == 0 {
			delay = -1
		}
		a.accountant = &outline.Accountant{Lister: a.outline, Retry: rl, RequestDelay: delay}
	}

	a.checker = &goalcheck.Checker{Cache: llmCache, Model: cfg.LLMModel, SystemPrompt: cfg.GoalSystemPrompt}
	if strings.TrimSpace(cfg.LLMModel) != "" {
		a.checker.Client = llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, a.httpClient)
	}
	return a, nil
}

// Close releases the store and idle connections.
func (a *App) Close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.outline != nil {
		_ = a.outline.Close()
	}
	a.httpClient.CloseIdleConnections()
	return err
}

func (a *App) snapshots() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if strings.TrimSpace(a.cfg.StorePath) == "" {
		return nil, errors.New("snapshot store path is not configured")
	}
	s, err := store.Open(a.cfg.StorePath)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// Count extracts rawURL under policy (empty means the configured policy).
func (a *App) Count(ctx context.Context, rawURL, policy string) (extract.Result, error) {
	if policy == "" {
		policy = a.cfg.Policy
	}
	p, err := orchestrate.ParsePolicy(policy)
	if err != nil {
		return extract.Result{}, err
	}
	return a.orch.Run(ctx, rawURL, p)
}

// Tracked is a count recorded against a goal.
type Tracked struct {
	Result   extract.Result
	Snapshot store.Snapshot
	// Delta is the change from the previous snapshot, valid when HasDelta.
	Delta    int
	HasDelta bool
}

// Track counts rawURL and records the count as a snapshot of goalID.
func (a *App) Track(ctx context.Context, goalID, rawURL, policy string) (Tracked, error) {
	if strings.TrimSpace(goalID) == "" {
		return Tracked{}, errors.New("track: empty goal id")
	}
	res, err := a.Count(ctx, rawURL, policy)
	if err != nil {
		return Tracked{}, err
	}
	s, err := a.snapshots()
	if err != nil {
		return Tracked{}, err
	}
	delta, ok, err := s.Delta(ctx, goalID, res.WordCount)
	if err != nil {
		return Tracked{}, err
	}
	snap, err := s.SaveCount(ctx, store.Snapshot{GoalID: goalID, SourceURL: rawURL, WordCount: res.WordCount, Method: string(res.Method)})
	if err != nil {
		return Tracked{}, err
	}
	log.Info().Str("goal", goalID).Int("words", res.WordCount).Int("delta", delta).Msg("snapshot saved")
	return Tracked{Result: res, Snapshot: snap, Delta: delta, HasDelta: ok}, nil
}

// ProgressOptions tunes Progress beyond the configured defaults.
type ProgressOptions struct {
	Exhaustive bool
	OnVisit    func(outline.Node)
}

// Progress accumulates words added under rootID inside window.
func (a *App) Progress(ctx context.Context, rootID string, window outline.Window, opts ProgressOptions) (outline.Progress, error) {
	if a.accountant == nil {
		return outline.Progress{}, ErrOutlineNotConfigured
	}
	return a.accountant.Accumulate(ctx, rootID, window, outline.Options{
		MaxDepth:   a.cfg.MaxDepth,
		Exhaustive: opts.Exhaustive || a.cfg.Exhaustive,
		Budget:     a.cfg.WalkBudget,
		OnVisit:    opts.OnVisit,
	})
}

// ValidateGoal scores a goal with the configured model or the fallback.
func (a *App) ValidateGoal(ctx context.Context, g goalcheck.Goal) (goalcheck.Assessment, error) {
	return a.checker.Check(ctx, g)
}

// History lists snapshots of goalID, newest first.
func (a *App) History(ctx context.Context, goalID string, limit int) ([]store.Snapshot, error) {
	s, err := a.snapshots()
	if err != nil {
		return nil, err
	}
	return s.History(ctx, goalID, limit)
}

// WriteReport renders r as Markdown to mdPath and PDF to pdfPath; either path
// may be empty to skip that format.
func WriteReport(r report.Report, mdPath, pdfPath string) error {
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now()
	}
	md := report.Markdown(r)
	if mdPath != "" {
		if err := writeFile(mdPath, []byte(md)); err != nil {
			return fmt.Errorf("write markdown report: %w", err)
		}
	}
	if pdfPath != "" {
		if err := report.WritePDFFile(md, pdfPath); err != nil {
			return fmt.Errorf("write pdf report: %w", err)
		}
	}
	return nil
}
