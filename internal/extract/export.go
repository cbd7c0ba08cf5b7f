package extract

import (
	"context"
	"fmt"
	"strings"
)

// ExportStrategy fetches a plain-text export endpoint. When a source offers
// one it is the most reliable strategy.
type ExportStrategy struct {
	Fetcher Getter
	// ExportURL derives the endpoint; nil means DefaultExportURL.
	ExportURL func(rawURL string) (string, bool)
}

func (ExportStrategy) Method() Method { return MethodExportText }

func (s ExportStrategy) Extract(ctx context.Context, t Target) (Result, error) {
	derive := s.ExportURL
	if derive == nil {
		derive = DefaultExportURL
	}
	exportURL, ok := derive(t.URL)
	if !ok {
		return Result{}, failure(MethodExportText, "no export endpoint for source", nil)
	}
	resp, err := s.Fetcher.GetWithProfile(ctx, exportURL, t.Profile)
	if err != nil {
		return Result{}, failure(MethodExportText, "fetch export", err)
	}
	if strings.HasPrefix(strings.ToLower(resp.ContentType), "text/html") {
		// Hosts answer private documents with a sign-in page instead of text.
		return Result{}, failure(MethodExportText, "export returned html, document may not be public", nil)
	}
	text := strings.TrimPrefix(string(resp.Body), "\ufeff")
	text = normalizeWhitespace(strings.ReplaceAll(text, "\r\n", "\n"))
	if len(text) < MinExportChars {
		return Result{}, failure(MethodExportText, fmt.Sprintf("export too short (%d chars)", len(text)), nil)
	}
	return NewResult(text, MethodExportText, "export="+exportURL), nil
}
