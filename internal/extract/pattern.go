package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/alphax/wordtrack/internal/wordcount"
)

// PatternStrategy harvests quoted string values of known keys straight from
// raw markup, for sources that embed their data in inline scripts. It is the
// lowest-confidence strategy.
type PatternStrategy struct {
	Fetcher Getter
	// Keys overrides PatternKeys.
	Keys []string
}

func (PatternStrategy) Method() Method { return MethodPatternMatch }

func (s PatternStrategy) Extract(ctx context.Context, t Target) (Result, error) {
	resp, err := s.Fetcher.GetWithProfile(ctx, t.URL, t.Profile)
	if err != nil {
		return Result{}, failure(MethodPatternMatch, "fetch", err)
	}
	values := HarvestPatterns(string(resp.Body), aliasesOr(s.Keys, PatternKeys))
	if len(values) == 0 {
		return Result{}, failure(MethodPatternMatch, "no quoted text values found", nil)
	}
	return NewResult(strings.Join(values, "\n"), MethodPatternMatch, fmt.Sprintf("values=%d", len(values))), nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

func keyPattern(keys []string) *regexp.Regexp {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`["'](` + strings.Join(quoted, "|") + `)["']\s*:\s*"((?:[^"\\]|\\.)*)"`)
}

// HarvestPatterns returns the prose-like string values following any of keys
// in raw, in document order, skipping URLs, identifiers and repeats.
func HarvestPatterns(raw string, keys []string) []string {
	re := keyPattern(keys)
	var out []string
	seen := map[string]struct{}{}
	for _, m := range re.FindAllStringSubmatch(raw, -1) {
		v := unescapeValue(m[2])
		if !looksLikeProse(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// unescapeValue decodes s as the body of a JSON string, which covers `\/`
// and surrogate pairs. Script literals may also carry `\'`, which JSON
// lacks; anything still undecodable is kept as written.
func unescapeValue(s string) string {
	var u string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &u); err == nil {
		s = u
	} else if err := json.Unmarshal([]byte(`"`+strings.ReplaceAll(s, `\'`, `'`)+`"`), &u); err == nil {
		s = u
	}
	return strings.TrimSpace(html.UnescapeString(stripTags(s)))
}

func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return tagRe.ReplaceAllString(s, " ")
}

func looksLikeProse(s string) bool {
	if len(s) < 2 {
		return false
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return false
	}
	if !strings.ContainsAny(s, " ") && looksLikeIdentifier(s) {
		return false
	}
	return wordcount.Count(s) > 0
}

// looksLikeIdentifier matches uuids, hashes and other opaque tokens.
func looksLikeIdentifier(s string) bool {
	digits, hexish := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
			hexish++
		case (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') || r == '-' || r == '_':
			hexish++
		}
	}
	n := len([]rune(s))
	return n >= 8 && (hexish == n || digits*2 >= n)
}
