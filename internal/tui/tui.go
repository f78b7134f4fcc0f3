// Package tui implements the terminal user interface for selecting and executing .flow files.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"go.followtheprocess.codes/asyncctx/internal/runner"
	"go.followtheprocess.codes/asyncctx/internal/syntax"
	"go.followtheprocess.codes/asyncctx/internal/syntax/parser"
	"go.followtheprocess.codes/asyncctx/internal/tui/components/filepicker"
	"go.followtheprocess.codes/asyncctx/internal/tui/components/list"
)

// Run runs the TUI, this is what happens when users call `asyncctx` with no arguments.
func Run() error {
	model := filepicker.New()

	tm, err := tea.NewProgram(&model).Run()
	if err != nil {
		return err
	}

	final, ok := tm.(filepicker.Model)
	if !ok {
		return fmt.Errorf("tui error, final model was not as expected: %T", tm)
	}

	file := final.Selected()
	if file == "" {
		// Quit without picking anything
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	parser, err := parser.New(file, f, syntax.PrettyConsoleHandler(os.Stderr))
	if err != nil {
		return err
	}

	raw, err := parser.Parse()
	if err != nil {
		return fmt.Errorf("%w: %s is not valid flow syntax", err, file)
	}

	flow, err := runner.Resolve(raw)
	if err != nil {
		return err
	}

	trace, err := flow.Execute(zerolog.Nop())
	if err != nil {
		return err
	}

	listModel := list.New("Trace of "+file, trace.Events)

	tm, err = tea.NewProgram(&listModel, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}

	if _, ok := tm.(list.Model); !ok {
		return fmt.Errorf("tui error, list final model was not as expected: %T", tm)
	}

	return nil
}
