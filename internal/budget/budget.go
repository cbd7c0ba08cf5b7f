// Package budget estimates prompt sizes so goal text sent to a model stays
// inside its context window.
package budget

import (
	"math"
	"strings"
	"unicode"
)

// charsPerToken is a conservative average for English prose.
const charsPerToken = 4

// EstimateTokens returns the estimated token count of s, at least 1 for a
// non-empty string.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / charsPerToken))
}

// ModelContextTokens returns the context window of a model. Unknown models
// get a conservative 8192.
func ModelContextTokens(model string) int {
	name := strings.ToLower(strings.TrimSpace(model))
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	switch {
	case strings.HasSuffix(name, "1m"):
		return 1_000_000
	case strings.HasSuffix(name, "200k"):
		return 200_000
	case strings.HasSuffix(name, "128k"), strings.Contains(name, "-mini"):
		return 128_000
	}
	return 8192
}

var knownModelMax = map[string]int{
	"gpt-4o":        128_000,
	"gpt-4o-mini":   128_000,
	"gpt-4-turbo":   128_000,
	"gpt-3.5-turbo": 16_384,
	"llama-3":       8_192,
	"llama-3.1":     128_000,
	"gpt-oss-20b":   4_096,
}

// headroom is the larger of 5% of the context or 512 tokens, covering
// tokenizer variance and message framing.
func headroom(contextTokens int) int {
	h := int(math.Ceil(float64(contextTokens) * 0.05))
	if h < 512 {
		return 512
	}
	return h
}

// Remaining returns the tokens left for user content after the system prompt,
// the output reservation and headroom. Never negative.
func Remaining(model, system string, reservedForOutput int) int {
	ctx := ModelContextTokens(model)
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	r := ctx - headroom(ctx) - reservedForOutput - EstimateTokens(system)
	if r < 0 {
		return 0
	}
	return r
}

// Truncate shortens s to roughly maxTokens, cutting at a word boundary. ok is
// false when s was shortened.
func Truncate(s string, maxTokens int) (out string, ok bool) {
	if EstimateTokens(s) <= maxTokens {
		return s, true
	}
	limit := maxTokens * charsPerToken
	if limit <= 0 {
		return "", false
	}
	cut := s[:limit]
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}
	return strings.ToValidUTF8(strings.TrimSpace(cut), ""), false
}
