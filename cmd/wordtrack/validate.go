package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/alphax/wordtrack/internal/app"
	"github.com/alphax/wordtrack/internal/goalcheck"
)

func newValidateGoalCmd(stdout io.Writer, root *rootOptions) *cobra.Command {
	var g goalcheck.Goal
	cmd := &cobra.Command{
		Use:   "validate-goal",
		Short: "Score a writing goal for specificity, measurability and ambition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.ValidateGoal(cmd.Context(), g)
			if err != nil {
				return err
			}
			return writeJSON(stdout, res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&g.Title, "title", "", "Goal title")
	f.StringVar(&g.Description, "description", "", "Goal description")
	f.IntVar(&g.TargetWords, "target-words", 0, "Word-count target")
	f.StringVar(&g.SourceURL, "url", "", "Document the goal is tracked against")
	return cmd
}
