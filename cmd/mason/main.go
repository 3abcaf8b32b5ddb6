// Package main provides the mason CLI entrypoint.
//
// Usage:
//
//	mason <command> [options]
//
// Exit codes for `run`:
//   - 0: candidate verified and stored
//   - 1: candidate rejected (exhausted, stagnated, or over budget)
//   - 2: generator failure or unusable generator output
//   - 3: internal error
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/masonry-io/mason/cli/cmd"
	"github.com/masonry-io/mason/types"
)

// commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "mason",
		Usage:          "Verification-gated code synthesis CLI",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.ListCommand(),
			cmd.InspectCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder
		// errors; this branch handles unexpected ones.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so the run exit code
// contract propagates to the shell.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
