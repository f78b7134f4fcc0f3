// Package syntax handles parsing raw .flow scenario text into meaningful data
// structures and implements the tokeniser and parser as well as some language
// level integration tests.
//
// A .flow file is a small script describing scoped bindings of context
// variables, reads of those variables, and continuations scheduled while
// particular bindings were in place:
//
//	@name = Worked example
//
//	var request = "top"
//
//	scope request = "value-1" {
//	    get request
//	    schedule first {
//	        get request
//	    }
//	}
//	drain
package syntax

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"go.followtheprocess.codes/hue"
)

// An ErrorHandler may be provided to parts of the parsing pipeline. If a syntax error is encountered and
// a non-nil handler was provided, it is called with the position info and error message.
type ErrorHandler func(pos Position, msg string)

// Position is an arbitrary source file position including file, line
// and column information. It can also express a range of source via StartCol
// and EndCol, this is useful for error reporting.
//
// Position's without filenames are considered invalid, in the case of stdin
// the string "stdin" may be used.
type Position struct {
	Name     string // Filename
	Offset   int    // Byte offset of the position from the start of the file
	Line     int    // Line number (1 indexed)
	StartCol int    // Start column (1 indexed)
	EndCol   int    // End column (1 indexed), EndCol == StartCol when pointing to a single character
}

// IsValid reports whether the [Position] describes a valid source position.
//
// The rules are:
//
//   - At least Name, Line and StartCol must be set (and non zero)
//   - EndCol cannot be 0, it's only allowed values are StartCol or any number greater than StartCol
func (p Position) IsValid() bool {
	if p.Name == "" || p.Line < 1 || p.StartCol < 1 || p.EndCol < 1 || (p.EndCol >= 1 && p.EndCol < p.StartCol) {
		return false
	}
	return true
}

// String returns a string representation of a [Position].
//
// It is formatted such that most text editors/terminals will be able to support clicking on it
// and navigating to the position.
//
// Depending on which fields are set, the string returned will be different:
//
//   - "file:line:start-end": valid position pointing to a range of text on the line
//   - "file:line:start": valid position pointing to a single character on the line (EndCol == StartCol)
func (p Position) String() string {
	if !p.IsValid() {
		return fmt.Sprintf(
			"BadPosition: {Name: %q, Line: %d, StartCol: %d, EndCol: %d}",
			p.Name,
			p.Line,
			p.StartCol,
			p.EndCol,
		)
	}

	if p.StartCol == p.EndCol {
		// No range, just a single position
		return fmt.Sprintf("%s:%d:%d", p.Name, p.Line, p.StartCol)
	}

	return fmt.Sprintf("%s:%d:%d-%d", p.Name, p.Line, p.StartCol, p.EndCol)
}

// StepKind is the kind of a scenario [Step].
type StepKind int

//go:generate stringer -type StepKind -linecomment
const (
	KindInvalid  StepKind = iota // invalid
	KindGet                      // get
	KindScope                    // scope
	KindRun                      // run
	KindSchedule                 // schedule
	KindDrain                    // drain
)

// MarshalText implements [encoding.TextMarshaler] for a [StepKind] so that
// steps serialise readably in JSON.
func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler] for a [StepKind].
func (k *StepKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "get":
		*k = KindGet
	case "scope":
		*k = KindScope
	case "run":
		*k = KindRun
	case "schedule":
		*k = KindSchedule
	case "drain":
		*k = KindDrain
	default:
		return fmt.Errorf("unrecognised step kind %q", text)
	}

	return nil
}

// A Flow is a single .flow file as parsed.
//
// Variable declarations and step structure are known to be syntactically
// valid but references are unchecked: a step may read or bind a variable
// that was never declared. Resolution is the runner's job.
type Flow struct {
	Name  string `json:"name,omitempty"`  // Name of the file (or @name if given)
	Vars  []Var  `json:"vars,omitempty"`  // Context variable declarations at the top of the file
	Steps []Step `json:"steps,omitempty"` // The scenario steps in order
}

// A Var is a single context variable declaration.
type Var struct {
	Name    string `json:"name"`              // Name of the variable
	Default string `json:"default,omitempty"` // Value the variable resolves to when unbound
}

// String implements [fmt.Stringer] for a [Var].
func (v Var) String() string {
	if v.Default != "" {
		return fmt.Sprintf("var %s = %q\n", v.Name, v.Default)
	}

	return fmt.Sprintf("var %s\n", v.Name)
}

// A Step is a single scenario step, possibly holding a body of nested steps.
type Step struct {
	Kind  StepKind `json:"kind"`            // What sort of step this is
	Var   string   `json:"var,omitempty"`   // Variable being read or bound (get, scope, run)
	Value string   `json:"value,omitempty"` // Value being bound (scope, run)
	Label string   `json:"label,omitempty"` // Continuation label (schedule)
	Body  []Step   `json:"body,omitempty"`  // Nested steps (scope, run, schedule)
}

// String implements [fmt.Stringer] for a [Step].
func (s Step) String() string {
	builder := &strings.Builder{}
	s.write(builder, 0)

	return builder.String()
}

// write renders the step (and its body, recursively) at the given indentation
// level.
func (s Step) write(builder *strings.Builder, depth int) {
	indent := strings.Repeat("    ", depth)

	switch s.Kind {
	case KindGet:
		fmt.Fprintf(builder, "%sget %s\n", indent, s.Var)
	case KindDrain:
		fmt.Fprintf(builder, "%sdrain\n", indent)
	case KindScope, KindRun:
		fmt.Fprintf(builder, "%s%s %s = %q {\n", indent, s.Kind, s.Var, s.Value)
		for _, step := range s.Body {
			step.write(builder, depth+1)
		}
		fmt.Fprintf(builder, "%s}\n", indent)
	case KindSchedule:
		fmt.Fprintf(builder, "%sschedule %s {\n", indent, s.Label)
		for _, step := range s.Body {
			step.write(builder, depth+1)
		}
		fmt.Fprintf(builder, "%s}\n", indent)
	case KindInvalid:
		fmt.Fprintf(builder, "%s<invalid step>\n", indent)
	}
}

// String implements [fmt.Stringer] for a [Flow].
func (f Flow) String() string {
	builder := &strings.Builder{}

	if f.Name != "" {
		fmt.Fprintf(builder, "@name = %q\n\n", f.Name)
	}

	for _, v := range f.Vars {
		builder.WriteString(v.String())
	}

	if len(f.Vars) > 0 {
		builder.WriteByte('\n')
	}

	for _, step := range f.Steps {
		step.write(builder, 0)
	}

	return builder.String()
}

// PrettyConsoleHandler returns a [ErrorHandler] that formats the syntax error for
// display on the terminal to a user.
func PrettyConsoleHandler(w io.Writer) ErrorHandler {
	return func(pos Position, msg string) {
		fmt.Fprintf(w, "%s: %s\n\n", pos, msg)

		contents, err := os.ReadFile(pos.Name)
		if err != nil {
			fmt.Fprintf(w, "unable to show src context: %v\n", err)
			return
		}

		lines := bytes.Split(contents, []byte("\n"))

		const contextLines = 3

		startLine := max(pos.Line-contextLines, 0)
		endLine := max(pos.Line+contextLines, len(lines))

		for i, line := range lines {
			i++ // Lines are 1 indexed
			if i >= startLine && i <= endLine {
				margin := fmt.Sprintf("%d | ", i)
				fmt.Fprintf(w, "%s%s\n", margin, line)
				if i == pos.Line {
					hue.Red.Fprintf(
						w,
						"%s%s\n",
						strings.Repeat(" ", len(margin)+pos.StartCol-1),
						strings.Repeat("─", pos.EndCol-pos.StartCol),
					)
				}
			}
		}
	}
}
