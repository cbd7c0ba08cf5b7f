package outline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/alphax/wordtrack/internal/fetch"
	"github.com/alphax/wordtrack/internal/retry"
	"github.com/alphax/wordtrack/internal/wordcount"
)

// ErrRateLimitExhausted marks a branch abandoned after every 429 retry.
var ErrRateLimitExhausted = errors.New("rate limit retries exhausted")

const (
	DefaultMaxDepth     = 30
	DefaultRequestDelay = 250 * time.Millisecond
	DefaultBudget       = 5 * time.Minute
	// maxPages caps pagination per parent in case the API loops cursors.
	maxPages = 1000
)

// Options tunes one accumulation.
type Options struct {
	// MaxDepth bounds recursion below the root. Zero means DefaultMaxDepth.
	MaxDepth int
	// Exhaustive disables subtree pruning. By default a node untouched since
	// before the window start is assumed to have an untouched subtree, which
	// under-counts when the upstream edits a child without bumping any
	// ancestor timestamp.
	Exhaustive bool
	// Budget is the wall-clock limit for the walk. Zero means DefaultBudget.
	Budget time.Duration
	// OnVisit is called for every node visited, in walk order.
	OnVisit func(Node)
}

// Accountant sums words added to an outline inside a time window.
type Accountant struct {
	Lister ChildLister
	// Retry governs 429 backoff. Zero value means retry.RateLimited.
	Retry retry.Policy
	// RequestDelay is the minimum spacing between children requests. Zero
	// means DefaultRequestDelay; negative disables pacing.
	RequestDelay time.Duration
}

// NewAccountant returns an Accountant with default pacing and backoff.
func NewAccountant(l ChildLister) *Accountant {
	return &Accountant{Lister: l, Retry: retry.RateLimited, RequestDelay: DefaultRequestDelay}
}

// Accumulate walks the subtree under rootID and returns the words added in
// window. It returns an error only for invalid arguments; branch failures,
// including failure to list the root's children, are recorded in
// Progress.Diagnostics and the best-effort total is returned.
func (a *Accountant) Accumulate(ctx context.Context, rootID string, window Window, opts Options) (Progress, error) {
	if rootID == "" {
		return Progress{}, errors.New("accumulate: empty root node id")
	}
	if a == nil || a.Lister == nil {
		return Progress{}, errors.New("accumulate: no child lister configured")
	}
	if err := window.Validate(); err != nil {
		return Progress{}, err
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Budget)
	defer cancel()

	policy := a.Retry
	if policy.MaxAttempts <= 0 {
		policy = retry.RateLimited
	}
	delay := a.RequestDelay
	if delay == 0 {
		delay = DefaultRequestDelay
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}

	w := &walker{
		lister:  a.Lister,
		policy:  policy,
		limiter: rate.NewLimiter(limit, 1),
		window:  window,
		opts:    opts,
	}
	w.walk(ctx, rootID, 0)
	log.Debug().Str("node", rootID).Int("words", w.progress.WordsAdded).Int("visited", w.progress.NodesVisited).Int("abandoned", w.progress.BranchesAbandoned).Msg("accumulation finished")
	return w.progress, nil
}

type walker struct {
	lister   ChildLister
	policy   retry.Policy
	limiter  *rate.Limiter
	window   Window
	opts     Options
	progress Progress
}

func (w *walker) diag(format string, args ...any) {
	w.progress.Diagnostics = append(w.progress.Diagnostics, fmt.Sprintf(format, args...))
}

// walk accounts for the children of id, which sits at depth (root is 0).
func (w *walker) walk(ctx context.Context, id string, depth int) {
	if depth >= w.opts.MaxDepth {
		w.diag("node %s: depth limit %d reached", id, w.opts.MaxDepth)
		return
	}
	children, err := w.children(ctx, id)
	if err != nil {
		switch {
		case fetch.IsNotFound(err):
			return
		case errors.Is(err, ErrRateLimitExhausted):
			w.progress.BranchesAbandoned++
			w.diag("node %s: %v", id, err)
			log.Warn().Str("node", id).Msg("abandoning branch after rate-limit retries")
		default:
			w.diag("node %s: %v", id, err)
			log.Warn().Err(err).Str("node", id).Msg("skipping branch")
		}
		return
	}
	sort.SliceStable(children, func(i, j int) bool { return children[i].Priority < children[j].Priority })

	for _, c := range children {
		if ctx.Err() != nil {
			w.diag("node %s: walk stopped: %v", id, ctx.Err())
			return
		}
		w.progress.NodesVisited++
		if w.opts.OnVisit != nil {
			w.opts.OnVisit(c)
		}
		created := w.window.Contains(c.CreatedAt)
		modified := w.window.Contains(c.ModifiedAt)
		if created || modified {
			w.progress.WordsAdded += wordcount.Count(c.Text())
		}
		if created {
			w.progress.NodesCreatedInRange++
		}
		if modified {
			w.progress.NodesModifiedInRange++
		}
		if w.opts.Exhaustive || touchedSince(c, w.window.Start) {
			w.walk(ctx, c.ID, depth+1)
		}
	}
}

// children lists every page of id's children, pacing each request through the
// shared limiter and backing off on 429.
func (w *walker) children(ctx context.Context, id string) ([]Node, error) {
	var (
		all    []Node
		cursor string
		seen   = map[string]bool{}
	)
	for pages := 0; pages < maxPages; pages++ {
		var page Page
		err := w.policy.Do(ctx, fetch.IsRateLimited, func(attempt int) error {
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
			if attempt > 0 {
				log.Debug().Str("node", id).Int("attempt", attempt+1).Msg("retrying rate-limited children request")
			}
			var err error
			page, err = w.lister.Children(ctx, id, cursor)
			return err
		})
		if err != nil {
			if errors.Is(err, retry.ErrExhausted) && fetch.IsRateLimited(err) {
				return nil, fmt.Errorf("%w after %d attempts", ErrRateLimitExhausted, w.policy.Attempts())
			}
			return nil, err
		}
		all = append(all, page.Nodes...)
		if page.NextCursor == "" || seen[page.NextCursor] {
			return all, nil
		}
		seen[page.NextCursor] = true
		cursor = page.NextCursor
	}
	w.diag("node %s: pagination stopped after %d pages", id, maxPages)
	return all, nil
}
