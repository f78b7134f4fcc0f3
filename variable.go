package asyncctx

import "sync/atomic"

// nextID hands out a process-wide unique identity to each new [Variable].
var nextID atomic.Uint64

// A Variable is a handle for a single named slot of context-local state.
//
// A Variable holds no value itself, it is an identity used to resolve a value
// against a [Task]'s current mapping. Two Variables are never the same slot,
// even if they share a name, and a Variable may be used with any number of
// Tasks. Create one with [New].
type Variable[T any] struct {
	name string
	def  T
	id   uint64
}

// Option is a functional option for configuring a new [Variable].
type Option[T any] func(*Variable[T])

// WithDefault sets the value a [Variable] resolves to when it is unbound in
// the current mapping. Without it, unbound variables resolve to the zero
// value of T.
func WithDefault[T any](def T) Option[T] {
	return func(v *Variable[T]) {
		v.def = def
	}
}

// New returns a new [Variable]. The name is purely diagnostic, appearing in
// error messages, it carries no identity.
func New[T any](name string, options ...Option[T]) *Variable[T] {
	v := &Variable[T]{
		name: name,
		id:   nextID.Add(1),
	}

	for _, option := range options {
		option(v)
	}

	return v
}

// Name returns the diagnostic name the Variable was created with.
func (v *Variable[T]) Name() string {
	return v.name
}

// Get returns the value bound to v in the task's current mapping, or the
// Variable's default if unbound. It has no side effects and never fails.
func (v *Variable[T]) Get(task *Task) T {
	value, ok := task.current.Get(v.id)
	if !ok {
		return v.def
	}

	return value.(T) //nolint:forcetypeassert // only v can write this slot, and it only writes T
}

// Lookup returns the value bound to v in the task's current mapping and
// whether v was bound at all. Unlike [Variable.Get] it does not fall back to
// the default.
func (v *Variable[T]) Lookup(task *Task) (value T, ok bool) {
	got, ok := task.current.Get(v.id)
	if !ok {
		var zero T
		return zero, false
	}

	return got.(T), true //nolint:forcetypeassert // see Get
}

// WithValue returns a Pending [Scope] that, once entered, binds v to value in
// the task's current mapping until the scope is disposed.
//
// WithValue itself does not touch the current mapping, the returned scope
// must be entered to take effect. Most callers want [With] rather than
// driving the scope by hand.
func (v *Variable[T]) WithValue(task *Task, value T) *Scope {
	return &Scope{
		task:  task,
		name:  v.name,
		key:   v.id,
		value: value,
		state: StatePending,
	}
}

// Run binds v to value for the duration of a single function call, restoring
// the prior mapping before returning no matter how fn exits.
//
// This is the function-scoped primitive that lexical scoping supplements, not
// replaces. fn's error (or panic) propagates unchanged after restoration.
func (v *Variable[T]) Run(task *Task, value T, fn func() error) error {
	before := task.current
	task.current = before.Set(v.id, value)
	defer func() {
		task.current = before
	}()

	return fn()
}
