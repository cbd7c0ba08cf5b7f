package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/alphax/wordtrack/internal/fetch"
)

// MaxStructuredDepth bounds object nesting during harvest.
const MaxStructuredDepth = 10

// StructuredStrategy reads a JSON tree API and harvests every text field
// named in Aliases.
type StructuredStrategy struct {
	Fetcher Getter
	// Endpoint derives the API URL; nil means DefaultStructuredURL.
	Endpoint func(rawURL string) (string, bool)
	// Token, when set, is sent as a bearer token.
	Token string
	// Aliases overrides FieldAliases.
	Aliases []string
}

func (StructuredStrategy) Method() Method { return MethodStructuredAPI }

func (s StructuredStrategy) Extract(ctx context.Context, t Target) (Result, error) {
	derive := s.Endpoint
	if derive == nil {
		derive = DefaultStructuredURL
	}
	apiURL, ok := derive(t.URL)
	if !ok {
		return Result{}, failure(MethodStructuredAPI, "no structured api for source", nil)
	}
	p := withBearer(t.Profile, s.Token)
	p.NoStore = true
	resp, err := s.Fetcher.GetWithProfile(ctx, apiURL, p)
	if err != nil {
		if code := fetch.StatusCode(err); code == 401 || code == 403 {
			return Result{}, failure(MethodStructuredAPI, "api requires authentication", err)
		}
		return Result{}, failure(MethodStructuredAPI, "fetch api", err)
	}
	var tree any
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return Result{}, failure(MethodStructuredAPI, "decode json", err)
	}
	h := harvester{aliases: aliasesOr(s.Aliases, FieldAliases)}
	h.walk(tree, 0)
	if h.fields == 0 {
		return Result{}, failure(MethodStructuredAPI, "no text fields in payload", nil)
	}
	diag := fmt.Sprintf("api=%s fields=%d", apiURL, h.fields)
	if h.truncated {
		diag += " depth-limited"
	}
	return NewResult(strings.Join(h.parts, "\n"), MethodStructuredAPI, diag), nil
}

func withBearer(p fetch.Profile, token string) fetch.Profile {
	if token == "" {
		return p
	}
	headers := make(map[string]string, len(p.Headers)+1)
	for k, v := range p.Headers {
		headers[k] = v
	}
	headers["Authorization"] = "Bearer " + token
	p.Headers = headers
	return p
}

type harvester struct {
	aliases   []string
	parts     []string
	fields    int
	truncated bool
}

// walk visits objects depth-first. Alias fields of an object are emitted
// before its nested values, and nested keys are visited in sorted order so
// output is deterministic.
func (h *harvester) walk(v any, depth int) {
	switch x := v.(type) {
	case map[string]any:
		if depth >= MaxStructuredDepth {
			h.truncated = true
			return
		}
		for _, key := range h.aliases {
			raw, ok := x[key]
			if !ok {
				continue
			}
			if s, ok := raw.(string); ok {
				h.fields++
				if s = strings.TrimSpace(html.UnescapeString(stripTags(s))); s != "" {
					h.parts = append(h.parts, s)
				}
			}
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch x[k].(type) {
			case map[string]any, []any:
				h.walk(x[k], depth+1)
			}
		}
	case []any:
		for _, item := range x {
			h.walk(item, depth)
		}
	}
}
