// Package runner implements the actual functionality exposed via the CLI:
// resolving parsed .flow scenarios and executing them against the context
// propagation model.
package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.followtheprocess.codes/asyncctx/internal/syntax"
	"go.followtheprocess.codes/asyncctx/internal/syntax/parser"
	"go.followtheprocess.codes/msg"
)

// Runner holds the state of the program.
type Runner struct {
	stdout io.Writer      // Normal program output is written here
	stderr io.Writer      // Logs and debug info
	logger zerolog.Logger // Structured debug logging, disabled unless verbose
}

// New returns a new instance of [Runner].
func New(stdout, stderr io.Writer, verbose bool) Runner {
	level := zerolog.Disabled
	if verbose {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	return Runner{
		stdout: stdout,
		stderr: stderr,
		logger: logger,
	}
}

// Check implements the `asyncctx check` subcommand.
func (r Runner) Check(files []string) error {
	for _, file := range files {
		err := func() error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			parser, err := parser.New(file, f, syntax.PrettyConsoleHandler(r.stderr))
			if err != nil {
				return err
			}

			if _, err = parser.Parse(); err != nil {
				return fmt.Errorf("%w: %s is not valid flow syntax", err, file)
			}

			msg.Fsuccess(r.stdout, "%s is valid", file)
			return nil
		}()
		if err != nil {
			return err
		}
	}

	return nil
}

// ShowOptions are the flags passed to the `asyncctx show` subcommand.
type ShowOptions struct {
	JSON bool // Output the flow as JSON
}

// Show implements the `asyncctx show` subcommand.
func (r Runner) Show(file string, options ShowOptions) error {
	flow, err := r.parse(file)
	if err != nil {
		return err
	}

	if options.JSON {
		return json.NewEncoder(r.stdout).Encode(flow)
	}

	fmt.Fprintln(r.stdout, strings.TrimSpace(flow.String()))
	return nil
}

// RunOptions are the flags passed to the `asyncctx run` subcommand.
type RunOptions struct {
	JSON bool // Output the trace as JSON
}

// Run implements the `asyncctx run` subcommand.
func (r Runner) Run(file string, options RunOptions) error {
	raw, err := r.parse(file)
	if err != nil {
		return err
	}

	flow, err := Resolve(raw)
	if err != nil {
		return err
	}

	trace, err := flow.Execute(r.logger)
	if err != nil {
		return err
	}

	if options.JSON {
		return json.NewEncoder(r.stdout).Encode(trace)
	}

	fmt.Fprint(r.stdout, trace.String())
	return nil
}

// parse opens and parses a single .flow file.
func (r Runner) parse(file string) (syntax.Flow, error) {
	f, err := os.Open(file)
	if err != nil {
		return syntax.Flow{}, err
	}
	defer f.Close()

	parser, err := parser.New(file, f, syntax.PrettyConsoleHandler(r.stderr))
	if err != nil {
		return syntax.Flow{}, err
	}

	flow, err := parser.Parse()
	if err != nil {
		return syntax.Flow{}, fmt.Errorf("%w: %s is not valid flow syntax", err, file)
	}

	return flow, nil
}
