package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alphax/wordtrack/internal/app"
)

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(stdout, "wordtrack %s\n", app.BuildVersion)
			fmt.Fprintf(stdout, "commit: %s\n", app.BuildCommit)
			fmt.Fprintf(stdout, "built: %s\n", app.BuildDate)
		},
	}
}
