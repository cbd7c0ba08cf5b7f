package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/alphax/wordtrack/internal/app"
	"github.com/alphax/wordtrack/internal/outline"
	"github.com/alphax/wordtrack/internal/report"
)

func newProgressCmd(stdout io.Writer, root *rootOptions) *cobra.Command {
	var (
		start, end, since string
		exhaustive        bool
		quiet             bool
		pdfPath, mdPath   string
		title             string
	)
	cmd := &cobra.Command{
		Use:   "progress ROOT_NODE_ID",
		Short: "Sum words added under an outline node inside a time window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := parseWindow(start, end, since, time.Now())
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			var bar *progressbar.ProgressBar
			popts := app.ProgressOptions{Exhaustive: exhaustive}
			if !quiet {
				bar = progressbar.NewOptions(-1,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("Walking outline"),
					progressbar.OptionSpinnerType(14),
					progressbar.OptionShowCount(),
					progressbar.OptionSetItsString("nodes"),
					progressbar.OptionThrottle(65*time.Millisecond),
					progressbar.OptionClearOnFinish(),
				)
				popts.OnVisit = func(outline.Node) { _ = bar.Add(1) }
			}
			p, err := a.Progress(cmd.Context(), args[0], window, popts)
			if bar != nil {
				_ = bar.Finish()
			}
			if err != nil {
				return err
			}
			if pdfPath != "" || mdPath != "" {
				r := report.Report{GoalID: args[0], Title: title, Window: &window, Progress: &p}
				if err := app.WriteReport(r, mdPath, pdfPath); err != nil {
					return err
				}
			}
			return writeJSON(stdout, p)
		},
	}
	f := cmd.Flags()
	f.StringVar(&start, "start", "", "Window start (RFC 3339 or YYYY-MM-DD)")
	f.StringVar(&end, "end", "", "Window end (RFC 3339 or YYYY-MM-DD, inclusive); default now")
	f.StringVar(&since, "since", "", "Window start relative to now, e.g. 24h or 7d")
	f.BoolVar(&exhaustive, "exhaustive", false, "Walk every subtree instead of pruning untouched ones")
	f.BoolVarP(&quiet, "quiet", "q", false, "No progress spinner")
	f.StringVar(&pdfPath, "pdf", "", "Also write a PDF report to this path")
	f.StringVar(&mdPath, "md", "", "Also write a Markdown report to this path")
	f.StringVar(&title, "title", "", "Report title")
	return cmd
}

// parseWindow builds a window from flag values. A date-only end covers the
// whole day.
func parseWindow(start, end, since string, now time.Time) (outline.Window, error) {
	var w outline.Window
	switch {
	case start != "" && since != "":
		return w, fmt.Errorf("use either --start or --since, not both")
	case since != "":
		d, err := parseSince(since)
		if err != nil {
			return w, err
		}
		w.Start = now.Add(-d)
	case start != "":
		t, _, err := parseInstant(start)
		if err != nil {
			return w, fmt.Errorf("--start: %w", err)
		}
		w.Start = t
	default:
		return w, fmt.Errorf("a window start is required (--start or --since)")
	}
	w.End = now
	if end != "" {
		t, dateOnly, err := parseInstant(end)
		if err != nil {
			return w, fmt.Errorf("--end: %w", err)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		w.End = t
	}
	return w, w.Validate()
}

func parseInstant(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unrecognized time %q", s)
	}
	return t, true, nil
}

func parseSince(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		var n int
		if _, err := fmt.Sscanf(days, "%d", &n); err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid --since %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid --since %q", s)
	}
	return d, nil
}
