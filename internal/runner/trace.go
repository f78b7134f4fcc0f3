package runner

import (
	"fmt"
	"strings"
)

// Event ops, in the order they can appear in a trace.
const (
	OpEnter    = "enter"    // A scope was entered
	OpGet      = "get"      // A variable was read
	OpDispose  = "dispose"  // A scope was disposed, restoring the prior binding
	OpRun      = "run"      // A run block began with its binding installed
	OpRestore  = "restore"  // A run block finished and restored the prior binding
	OpSchedule = "schedule" // A continuation was scheduled, capturing the current bindings
	OpDrain    = "drain"    // Queued continuations were drained in order
)

// An Event is a single observation made while executing a [Flow].
type Event struct {
	Op     string `json:"op"`
	Strand string `json:"strand,omitempty"`
	Var    string `json:"var,omitempty"`
	Value  string `json:"value,omitempty"`
}

// String implements [fmt.Stringer] for an [Event].
//
// Events observed inside a scheduled continuation are prefixed with the
// continuation's label in square brackets, events on the main task have no
// prefix.
func (e Event) String() string {
	if e.Strand != "" {
		return fmt.Sprintf("[%s] %s", e.Strand, e.Title())
	}

	return e.Title()
}

// FilterValue helps implement tea.list.Item.
//
// See https://github.com/charmbracelet/bubbles/tree/master/list#adding-custom-items.
func (e Event) FilterValue() string {
	return e.String()
}

// Title returns the rendered event without the strand prefix.
func (e Event) Title() string {
	switch e.Op {
	case OpSchedule:
		return fmt.Sprintf("%s %s", e.Op, e.Value)
	case OpDrain:
		return e.Op
	default:
		return fmt.Sprintf("%s %s=%q", e.Op, e.Var, e.Value)
	}
}

// Description returns where the event was observed.
func (e Event) Description() string {
	if e.Strand == "" {
		return "main task"
	}

	return "continuation " + e.Strand
}

// A Trace is the complete record of executing a [Flow], one event per
// observation in execution order.
type Trace struct {
	Name   string  `json:"name,omitempty"`
	Events []Event `json:"events"`
}

// String implements [fmt.Stringer] for a [Trace], rendering one event per
// line.
func (t Trace) String() string {
	s := &strings.Builder{}

	for _, event := range t.Events {
		s.WriteString(event.String())
		s.WriteString("\n")
	}

	return s.String()
}
