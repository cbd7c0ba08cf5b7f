package orchestrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alphax/wordtrack/internal/extract"
	"github.com/alphax/wordtrack/internal/fetch"
)

// ErrExtractionFailed matches any *ExtractionFailed with errors.Is.
var ErrExtractionFailed = errors.New("extraction failed")

// Attempt records one strategy run.
type Attempt struct {
	Method  extract.Method
	Profile string
	Err     error
}

// ExtractionFailed is returned when every applicable strategy failed.
type ExtractionFailed struct {
	URL      string
	Attempts []Attempt
	// Hint is a human-readable suggestion for the end user.
	Hint string
}

func (e *ExtractionFailed) Error() string {
	return fmt.Sprintf("extraction failed for %s after %d attempts", e.URL, len(e.Attempts))
}

func (e *ExtractionFailed) Is(target error) bool { return target == ErrExtractionFailed }

// RateLimited reports whether any attempt failed with HTTP 429, meaning the
// caller should retry later rather than give up on the document.
func (e *ExtractionFailed) RateLimited() bool {
	for _, a := range e.Attempts {
		if fetch.IsRateLimited(a.Err) {
			return true
		}
	}
	return false
}

func hintFor(attempts []Attempt) string {
	for _, a := range attempts {
		if fetch.IsRateLimited(a.Err) {
			return "The document host is rate limiting requests; try again in a few minutes."
		}
	}
	for _, a := range attempts {
		code := fetch.StatusCode(a.Err)
		if code == 401 || code == 403 || code == 404 || (a.Err != nil && strings.Contains(a.Err.Error(), "may not be public")) {
			return "Ensure the document is publicly shared (anyone with the link can view) and the link is correct."
		}
	}
	return "Ensure the document is publicly shared and contains text; if it does, try the aggressive extraction policy."
}

func diagnostic(attempts []Attempt) string {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		label := string(a.Method)
		if a.Profile != "" {
			label += "@" + a.Profile
		}
		if a.Err != nil {
			parts = append(parts, label+": "+a.Err.Error())
		} else {
			parts = append(parts, label+": ok")
		}
	}
	return strings.Join(parts, "; ")
}
