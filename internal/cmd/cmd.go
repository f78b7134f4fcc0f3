// Package cmd implements asyncctx's CLI.
package cmd

import (
	"go.followtheprocess.codes/asyncctx/internal/runner"
	"go.followtheprocess.codes/asyncctx/internal/tui"
	"go.followtheprocess.codes/cli"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Build returns the root asyncctx CLI command.
func Build() (*cli.Command, error) {
	return cli.New(
		"asyncctx",
		cli.Short("Work with .flow files on the command line"),
		cli.Allow(cli.NoArgs()),
		cli.Version(version),
		cli.Commit(commit),
		cli.BuildDate(date),
		cli.Run(func(cmd *cli.Command, args []string) error {
			return tui.Run()
		}),
		cli.SubCommands(check, show, run),
	)
}

// check returns the check subcommand.
func check() (*cli.Command, error) {
	return cli.New(
		"check",
		cli.Short("Check .flow files for syntax errors"),
		cli.Allow(cli.MinArgs(1)),
		cli.Run(func(cmd *cli.Command, args []string) error {
			app := runner.New(cmd.Stdout(), cmd.Stderr(), false)
			return app.Check(args)
		}),
	)
}

// show returns the show subcommand.
func show() (*cli.Command, error) {
	var options runner.ShowOptions
	return cli.New(
		"show",
		cli.Short("Show the contents of a .flow file"),
		cli.RequiredArg("file", "Path of the .flow file"),
		cli.Flag(&options.JSON, "json", 'j', false, "Output the file as JSON"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			app := runner.New(cmd.Stdout(), cmd.Stderr(), false)
			return app.Show(cmd.Arg("file"), options)
		}),
	)
}

const runLong = `
The flow is executed to completion on a single event loop and the
resulting trace printed, one observation per line.

Observations made inside scheduled continuations are prefixed with
the continuation's label.
`

// run returns the run subcommand.
func run() (*cli.Command, error) {
	var (
		options runner.RunOptions
		verbose bool
	)
	return cli.New(
		"run",
		cli.Short("Execute a flow from a file"),
		cli.Long(runLong),
		cli.RequiredArg("file", ".flow file containing the scenario"),
		cli.Flag(&options.JSON, "json", 'j', false, "Output the trace as JSON"),
		cli.Flag(&verbose, "verbose", 'v', false, "Enable debug logging"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			app := runner.New(cmd.Stdout(), cmd.Stderr(), verbose)
			return app.Run(cmd.Arg("file"), options)
		}),
	)
}
