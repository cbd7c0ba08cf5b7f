package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/alphax/wordtrack/internal/app"
)

func newHistoryCmd(stdout io.Writer, root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history GOAL_ID",
		Short: "List recorded word-count snapshots of a goal, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			snaps, err := a.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return writeJSON(stdout, snaps)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum snapshots to list; 0 lists all")
	return cmd
}
