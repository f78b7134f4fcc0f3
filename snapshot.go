package asyncctx

import "go.followtheprocess.codes/asyncctx/internal/mapping"

// A Snapshot is a task's current mapping as captured at a single instant.
//
// Because mappings are immutable a Snapshot can never be mutated
// retroactively: whatever scopes are entered, disposed, or run after capture,
// the Snapshot resolves exactly as the task did at the moment of capture.
// This is the mechanism by which context propagates into asynchronous
// continuations, a scheduler captures a Snapshot when a continuation is
// scheduled and runs the continuation inside [Snapshot.Run].
type Snapshot struct {
	captured mapping.Map
}

// Capture returns a [Snapshot] of the task's current mapping.
func Capture(task *Task) Snapshot {
	return Snapshot{captured: task.current}
}

// Run invokes fn with the captured mapping installed as the task's current
// mapping, restoring the prior one before returning no matter how fn exits.
//
// The task need not be the one the Snapshot was captured from: a producer
// task may capture a Snapshot into a continuation that a different consumer
// task later runs.
func (s Snapshot) Run(task *Task, fn func() error) error {
	before := task.current
	task.current = s.captured
	defer func() {
		task.current = before
	}()

	return fn()
}

// Wrap returns a function that runs fn inside a [Snapshot] of the task's
// current mapping as it is right now, however long after capture the returned
// function is invoked.
func Wrap(task *Task, fn func() error) func() error {
	snap := Capture(task)
	return func() error {
		return snap.Run(task, fn)
	}
}
