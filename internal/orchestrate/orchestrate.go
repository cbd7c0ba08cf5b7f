// Package orchestrate runs extraction strategies under a selection policy and
// picks the best result.
package orchestrate

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alphax/wordtrack/internal/extract"
	"github.com/alphax/wordtrack/internal/fetch"
)

// Options tunes an Orchestrator.
type Options struct {
	// GoodEnough stops smart/enhanced runs once a result reaches this many
	// words. Zero means 2000.
	GoodEnough int
	// Budget is the wall-clock limit for one Run. Zero means 90s.
	Budget time.Duration
	// Profiles are the request fingerprints tried by the aggressive policy.
	// Empty means fetch.Profiles.
	Profiles []fetch.Profile
}

// Orchestrator owns one strategy per method.
type Orchestrator struct {
	strategies map[extract.Method]extract.Strategy
	opts       Options
}

// New registers strategies by their Method; a later strategy with the same
// method replaces an earlier one.
func New(strategies []extract.Strategy, opts Options) *Orchestrator {
	if opts.GoodEnough <= 0 {
		opts.GoodEnough = 2000
	}
	if opts.Budget <= 0 {
		opts.Budget = 90 * time.Second
	}
	if len(opts.Profiles) == 0 {
		opts.Profiles = fetch.Profiles
	}
	m := make(map[extract.Method]extract.Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Method()] = s
	}
	return &Orchestrator{strategies: m, opts: opts}
}

// NewDefault wires the four built-in strategies to one fetcher.
func NewDefault(g extract.Getter, structuredToken string, opts Options) *Orchestrator {
	return New([]extract.Strategy{
		extract.StructuredStrategy{Fetcher: g, Token: structuredToken},
		extract.ExportStrategy{Fetcher: g},
		extract.DOMStrategy{Fetcher: g},
		extract.PatternStrategy{Fetcher: g},
	}, opts)
}

type step struct {
	method  extract.Method
	profile fetch.Profile
}

// Plan returns the strategy order a policy uses for a URL.
func Plan(policy Policy, rawURL string) []extract.Method {
	src := extract.DetectSource(rawURL)
	switch policy {
	case PolicyFast:
		return []extract.Method{cheapest(src)}
	case PolicySmart:
		preferred := preferredFor(src)
		order := []extract.Method{preferred}
		for _, m := range extract.Priority {
			if m != preferred {
				order = append(order, m)
			}
		}
		return order
	default:
		return append([]extract.Method(nil), extract.Priority...)
	}
}

func preferredFor(src extract.SourceType) extract.Method {
	switch src {
	case extract.SourceOutline:
		return extract.MethodStructuredAPI
	case extract.SourceGoogleDoc:
		return extract.MethodExportText
	default:
		return extract.MethodDOMText
	}
}

// cheapest is the single-request strategy with acceptable recall per source.
func cheapest(src extract.SourceType) extract.Method {
	switch src {
	case extract.SourceOutline:
		return extract.MethodPatternMatch
	case extract.SourceGoogleDoc:
		return extract.MethodExportText
	default:
		return extract.MethodDOMText
	}
}

func (o *Orchestrator) steps(policy Policy, rawURL string) []step {
	methods := Plan(policy, rawURL)
	var out []step
	for _, m := range methods {
		if _, ok := o.strategies[m]; !ok {
			continue
		}
		if policy == PolicyAggressive {
			for _, p := range o.opts.Profiles {
				out = append(out, step{method: m, profile: p})
			}
			continue
		}
		out = append(out, step{method: m})
	}
	return out
}

// Run extracts text from rawURL under policy. Individual strategy failures
// are recorded and skipped; only exhaustion of every applicable strategy
// returns an error, which is always an *ExtractionFailed.
func (o *Orchestrator) Run(ctx context.Context, rawURL string, policy Policy) (extract.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.Budget)
	defer cancel()

	var (
		attempts []Attempt
		results  []extract.Result
	)
	for _, st := range o.steps(policy, rawURL) {
		if ctx.Err() != nil {
			attempts = append(attempts, Attempt{Method: st.method, Profile: st.profile.Name, Err: ctx.Err()})
			break
		}
		r, err := o.strategies[st.method].Extract(ctx, extract.Target{URL: rawURL, Profile: st.profile})
		attempts = append(attempts, Attempt{Method: st.method, Profile: st.profile.Name, Err: err})
		if err != nil {
			log.Debug().Err(err).Str("url", rawURL).Str("method", string(st.method)).Str("profile", st.profile.Name).Msg("strategy failed")
			continue
		}
		log.Debug().Str("url", rawURL).Str("method", string(st.method)).Int("words", r.WordCount).Msg("strategy succeeded")
		results = append(results, r)
		if policy == PolicyFast {
			break
		}
		if (policy == PolicySmart || policy == PolicyEnhanced) && r.WordCount >= o.opts.GoodEnough {
			break
		}
	}

	best, ok := Best(results)
	if !ok {
		failed := &ExtractionFailed{URL: rawURL, Attempts: attempts, Hint: hintFor(attempts)}
		log.Warn().Str("url", rawURL).Str("policy", string(policy)).Str("diagnostic", diagnostic(attempts)).Msg("all extraction strategies failed")
		return extract.Result{}, failed
	}
	if best.Diagnostic != "" {
		best.Diagnostic = diagnostic(attempts) + " | " + best.Diagnostic
	} else {
		best.Diagnostic = diagnostic(attempts)
	}
	log.Info().Str("url", rawURL).Str("policy", string(policy)).Str("method", string(best.Method)).Int("words", best.WordCount).Msg("extracted")
	return best, nil
}
