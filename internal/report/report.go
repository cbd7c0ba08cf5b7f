// Package report renders goal progress as Markdown and PDF.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/alphax/wordtrack/internal/extract"
	"github.com/alphax/wordtrack/internal/goalcheck"
	"github.com/alphax/wordtrack/internal/outline"
	"github.com/alphax/wordtrack/internal/store"
)

// Report gathers everything known about one goal at one point in time. Nil
// sections are omitted from the output.
type Report struct {
	GoalID      string
	Title       string
	SourceURL   string
	GeneratedAt time.Time
	// TargetWords is the goal's target, zero when unset.
	TargetWords int

	Extraction *extract.Result
	Window     *outline.Window
	Progress   *outline.Progress
	Assessment *goalcheck.Assessment
	History    []store.Snapshot
	// Delta is the change since the previous snapshot, valid when HasDelta.
	Delta    int
	HasDelta bool
}

// Markdown renders r.
func Markdown(r Report) string {
	var sb strings.Builder
	title := r.Title
	if title == "" {
		title = "Goal " + r.GoalID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if r.SourceURL != "" {
		fmt.Fprintf(&sb, "Document: [%s](%s)\n\n", r.SourceURL, r.SourceURL)
	}
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "Generated: %s\n\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	}

	if r.Extraction != nil {
		sb.WriteString("## Word count\n\n")
		fmt.Fprintf(&sb, "- Words: %d\n", r.Extraction.WordCount)
		fmt.Fprintf(&sb, "- Method: %s\n", r.Extraction.Method)
		if r.TargetWords > 0 {
			fmt.Fprintf(&sb, "- Target: %d (%s)\n", r.TargetWords, percent(r.Extraction.WordCount, r.TargetWords))
		}
		if r.HasDelta {
			fmt.Fprintf(&sb, "- Since last snapshot: %+d\n", r.Delta)
		}
		if r.Extraction.Empty {
			sb.WriteString("- The document is reachable but contains no text.\n")
		}
		sb.WriteString("\n")
	}

	if r.Progress != nil {
		sb.WriteString("## Progress in window\n\n")
		if r.Window != nil {
			fmt.Fprintf(&sb, "Window: %s to %s\n\n", r.Window.Start.UTC().Format(time.RFC3339), r.Window.End.UTC().Format(time.RFC3339))
		}
		p := r.Progress
		fmt.Fprintf(&sb, "- Words added: %d\n", p.WordsAdded)
		fmt.Fprintf(&sb, "- Nodes created: %d\n", p.NodesCreatedInRange)
		fmt.Fprintf(&sb, "- Nodes modified: %d\n", p.NodesModifiedInRange)
		fmt.Fprintf(&sb, "- Nodes visited: %d\n", p.NodesVisited)
		if p.BranchesAbandoned > 0 {
			fmt.Fprintf(&sb, "- Branches skipped after rate limiting: %d (totals may be low)\n", p.BranchesAbandoned)
		}
		sb.WriteString("\n")
	}

	if a := r.Assessment; a != nil {
		sb.WriteString("## Goal review\n\n")
		verdict := "needs work"
		if a.Valid {
			verdict = "accepted"
		}
		fmt.Fprintf(&sb, "Overall %d/100, %s.\n\n", a.Overall, verdict)
		fmt.Fprintf(&sb, "- Specificity: %d\n- Measurability: %d\n- Ambition: %d\n", a.Specificity, a.Measurable, a.Ambition)
		if a.Feedback != "" {
			fmt.Fprintf(&sb, "\n%s\n", a.Feedback)
		}
		for _, s := range a.Suggestions {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
		sb.WriteString("\n")
	}

	if len(r.History) > 0 {
		sb.WriteString("## History\n\n")
		for _, s := range r.History {
			fmt.Fprintf(&sb, "- %s: %d words (%s)\n", s.TakenAt.UTC().Format("2006-01-02 15:04"), s.WordCount, s.Method)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func percent(n, of int) string {
	if of <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", float64(n)*100/float64(of))
}
