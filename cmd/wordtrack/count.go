package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/alphax/wordtrack/internal/app"
)

type countOutput struct {
	WordCount  int    `json:"wordCount"`
	Method     string `json:"method"`
	Empty      bool   `json:"empty,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty"`
	GoalID     string `json:"goalId,omitempty"`
	Delta      *int   `json:"delta,omitempty"`
}

func newCountCmd(stdout io.Writer, root *rootOptions) *cobra.Command {
	var (
		goalID  string
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "count URL",
		Short: "Extract a document and print its word count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			out := countOutput{GoalID: goalID}
			if goalID != "" {
				tr, err := a.Track(cmd.Context(), goalID, args[0], "")
				if err != nil {
					return err
				}
				out.WordCount, out.Method, out.Empty = tr.Result.WordCount, string(tr.Result.Method), tr.Result.Empty
				if tr.HasDelta {
					d := tr.Delta
					out.Delta = &d
				}
				if explain {
					out.Diagnostic = tr.Result.Diagnostic
				}
				return writeJSON(stdout, out)
			}
			res, err := a.Count(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			out.WordCount, out.Method, out.Empty = res.WordCount, string(res.Method), res.Empty
			if explain {
				out.Diagnostic = res.Diagnostic
			}
			return writeJSON(stdout, out)
		},
	}
	cmd.Flags().StringVar(&goalID, "goal", "", "Record the count as a snapshot of this goal")
	cmd.Flags().BoolVar(&explain, "explain", false, "Include the strategy trace in the output")
	return cmd
}
