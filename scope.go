package asyncctx

import (
	"errors"
	"fmt"

	"go.followtheprocess.codes/asyncctx/internal/mapping"
)

var (
	// ErrInvalidState is the error returned by [Scope.Enter] when the scope
	// is not Pending, covering both re-entry and entry after disposal.
	ErrInvalidState = errors.New("scope is not pending")

	// ErrUnbalancedDisposal is the error returned by [Scope.Dispose] when a
	// scope entered after this one is still active, i.e. scopes are being
	// disposed out of stack order. The current mapping is left untouched so
	// state is signalled rather than silently corrupted.
	ErrUnbalancedDisposal = errors.New("unbalanced scope disposal")
)

// State is the lifecycle state of a [Scope].
type State int

//go:generate stringer -type State -linecomment
const (
	StatePending  State = iota // Pending
	StateActive                // Active
	StateDisposed              // Disposed
)

// A Scope is a scope record: one not-yet-applied (or applied, or undone)
// binding of a [Variable] to a value on a particular [Task].
//
// A Scope moves strictly Pending → Active → Disposed. Entering installs a
// mapping derived from the current one, disposing restores the mapping that
// was current at entry. Scopes entered within the dynamic extent of another
// active scope must be disposed in reverse order of entry, Dispose detects
// violations rather than restoring a stale mapping.
//
// Create one with [Variable.WithValue] and prefer driving it through [With].
type Scope struct {
	task      *Task
	value     any
	name      string
	before    mapping.Map
	installed mapping.Map
	key       uint64
	state     State
}

// State returns the scope's current lifecycle [State].
func (s *Scope) State() State {
	return s.state
}

// Value returns the value this scope binds (or bound, or will bind) to its
// variable.
func (s *Scope) Value() any {
	return s.value
}

// Enter applies the scope's binding: it saves the task's current mapping,
// derives a new mapping with the scope's variable rebound, and installs it as
// current.
//
// Enter is valid only on a Pending scope, anything else returns
// [ErrInvalidState].
func (s *Scope) Enter() error {
	if s.state != StatePending {
		return fmt.Errorf(
			"cannot enter scope binding %s: %w: scope is %s",
			s.name,
			ErrInvalidState,
			s.state,
		)
	}

	s.before = s.task.current
	s.installed = s.before.Set(s.key, s.value)
	s.task.current = s.installed
	s.state = StateActive

	return nil
}

// Dispose undoes the scope's binding, restoring the mapping that was current
// when the scope was entered.
//
// Dispose is idempotent: disposing an already Disposed scope is a no-op, as
// scoped-resource cleanup contracts require. Disposing a Pending scope marks
// it Disposed without touching the current mapping. Disposing an Active scope
// while a scope entered after it is still active returns
// [ErrUnbalancedDisposal] and changes nothing.
func (s *Scope) Dispose() error {
	switch s.state {
	case StateDisposed:
		return nil
	case StatePending:
		// Never entered, nothing to restore
		s.state = StateDisposed
		return nil
	case StateActive:
		// Continues below, but the compiler likes exhaustive switches
	}

	// If the current mapping is not the exact one this scope installed then
	// an inner scope is still active, restoring s.before now would silently
	// drop that scope's undo information
	if s.task.current != s.installed {
		return fmt.Errorf(
			"cannot dispose scope binding %s: %w: a scope entered after it is still active",
			s.name,
			ErrUnbalancedDisposal,
		)
	}

	s.task.current = s.before
	s.state = StateDisposed

	return nil
}
