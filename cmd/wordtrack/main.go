package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/alphax/wordtrack/internal/orchestrate"
)

// Exit codes.
const (
	exitOK               = 0
	exitError            = 1
	exitExtractionFailed = 2
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var failed *orchestrate.ExtractionFailed
	if errors.As(err, &failed) {
		fmt.Fprintf(stderr, "error: %v\nhint: %s\n", err, failed.Hint)
		return exitExtractionFailed
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitError
}
