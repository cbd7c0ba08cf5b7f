package orchestrate

import "github.com/alphax/wordtrack/internal/extract"

// Best reduces candidate results to the winner: a strictly higher word count
// wins, and ties go to the candidate that came first. Candidates are expected
// in priority order. ok is false for an empty slice.
func Best(results []extract.Result) (best extract.Result, ok bool) {
	for i, r := range results {
		if i == 0 || r.WordCount > best.WordCount {
			best = r
		}
	}
	return best, len(results) > 0
}
