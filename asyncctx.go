// Package asyncctx implements context-local variables whose values propagate
// into asynchronous continuations and can be bound to a lexical scope rather
// than a function call.
//
// The model has three cooperating pieces:
//
//   - A [Variable] is an identity-only handle for a single slot of
//     context-local state
//   - An immutable mapping of variable identities to values forms the
//     "current" propagation state of a [Task] at any point in its execution
//   - A [Scope] installs a new mapping on entry and restores the prior one
//     on disposal, with strict stack discipline between nested scopes
//
// "Current mapping" is per [Task], not global. A continuation scheduled while
// some mapping is current captures that mapping (see [Capture] and [Wrap]) and
// runs with it reinstated, no matter what mapping is current when it actually
// executes. Because mappings are immutable and each Task is single-writer, no
// locking is involved anywhere.
//
// A typical lexically scoped binding looks like:
//
//	task := asyncctx.NewTask()
//	requestID := asyncctx.New[string]("requestID", asyncctx.WithDefault("unknown"))
//
//	err := asyncctx.With(requestID.WithValue(task, "abc123"), func() error {
//		fmt.Println(requestID.Get(task)) // "abc123"
//		return nil
//	})
//	// requestID.Get(task) == "unknown" again, even if the closure errored
package asyncctx

import (
	"errors"

	"go.followtheprocess.codes/asyncctx/internal/mapping"
)

// A Task is one logical task of execution: a call stack, or a chain of
// suspended continuations, with its own current mapping.
//
// A Task is deliberately not safe for concurrent use, only the goroutine or
// event loop that owns it may enter scopes, dispose them, or run snapshots on
// it. Concurrent tasks interact only by capturing a [Snapshot] on one task and
// running it on another, which is safe because mappings are immutable.
type Task struct {
	current mapping.Map
}

// NewTask returns a new [Task] whose current mapping is empty, so every
// [Variable] resolves to its default.
func NewTask() *Task {
	return &Task{}
}

// Bindings returns the number of variables bound in the Task's current
// mapping.
func (t *Task) Bindings() int {
	return t.current.Len()
}

// Resource is the two-method capability implemented by any value that can be
// entered at the start of a block and disposed when control leaves it.
//
// [Scope] is the implementation this package provides, but [With] is
// polymorphic over the capability, not the concrete type.
type Resource interface {
	// Enter acquires the resource. It is called exactly once, before the
	// block it guards begins.
	Enter() error

	// Dispose releases the resource. Implementations must tolerate being
	// called more than once.
	Dispose() error
}

// With runs fn between entering and disposing resource, standing in for a
// scoped-acquisition language construct: dispose is invoked exactly once when
// control leaves fn on any path, including panic.
//
// fn's error is returned unchanged. If disposal itself fails the disposal
// error is joined onto it.
func With(resource Resource, fn func() error) (err error) {
	if enterErr := resource.Enter(); enterErr != nil {
		return enterErr
	}

	defer func() {
		if disposeErr := resource.Dispose(); disposeErr != nil {
			err = errors.Join(err, disposeErr)
		}
	}()

	return fn()
}
