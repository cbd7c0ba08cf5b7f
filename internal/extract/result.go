// Package extract turns fetched documents into plain text. Each strategy sits
// behind its own adapter so an upstream format change breaks one strategy,
// not the orchestration around it.
package extract

import (
	"context"
	"fmt"

	"github.com/alphax/wordtrack/internal/fetch"
	"github.com/alphax/wordtrack/internal/wordcount"
)

// Method names the strategy that produced a Result.
type Method string

const (
	MethodStructuredAPI Method = "structured_api"
	MethodExportText    Method = "export_text"
	MethodDOMText       Method = "dom_text"
	MethodPatternMatch  Method = "pattern_match"
)

// Priority is the fixed fallback order used by the orchestrator.
var Priority = []Method{MethodStructuredAPI, MethodExportText, MethodDOMText, MethodPatternMatch}

// Rank returns the position of m in Priority, or len(Priority) if unknown.
func (m Method) Rank() int {
	for i, p := range Priority {
		if p == m {
			return i
		}
	}
	return len(Priority)
}

// MinContentChars is the shortest normalized text accepted from the DOM
// strategy, below which a page is treated as a shell without content.
const MinContentChars = 50

// MinExportChars is the shortest accepted export body. Export endpoints
// return the document text itself, so only near-empty bodies are rejected.
const MinExportChars = 12

// Result is normalized text plus its derived word count.
type Result struct {
	Content    string `json:"-"`
	WordCount  int    `json:"wordCount"`
	Method     Method `json:"method"`
	Diagnostic string `json:"diagnostic,omitempty"`
	// Empty is set when the source was reached and parsed but genuinely
	// holds no text, as opposed to a failed extraction.
	Empty bool `json:"empty,omitempty"`
}

// NewResult normalizes content and derives WordCount from it.
func NewResult(content string, method Method, diagnostic string) Result {
	content = wordcount.Normalize(content)
	n := wordcount.Count(content)
	return Result{Content: content, WordCount: n, Method: method, Diagnostic: diagnostic, Empty: n == 0}
}

// StrategyError is a non-fatal failure of one strategy.
type StrategyError struct {
	Method Method
	Reason string
	Err    error
}

func (e *StrategyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Method, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Method, e.Reason)
}

func (e *StrategyError) Unwrap() error { return e.Err }

func failure(m Method, reason string, err error) error {
	return &StrategyError{Method: m, Reason: reason, Err: err}
}

// Target is what a strategy extracts from: a URL plus the request profile
// to fetch it with.
type Target struct {
	URL     string
	Profile fetch.Profile
}

// Strategy converts a target into text.
type Strategy interface {
	Method() Method
	Extract(ctx context.Context, t Target) (Result, error)
}

// Getter is the subset of fetch.Client strategies need.
type Getter interface {
	GetWithProfile(ctx context.Context, url string, p fetch.Profile) (fetch.Response, error)
}
