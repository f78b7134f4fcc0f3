// Package loop implements a minimal cooperative event loop for exercising
// context propagation across asynchronous continuations.
//
// A [Loop] owns a single [asyncctx.Task] and a FIFO queue of continuations.
// Scheduling a continuation with [Loop.Go] captures the task's current
// mapping at schedule time, and draining the queue runs each continuation
// with its captured mapping installed, symmetric to the install/restore
// discipline of [asyncctx.Variable.Run]. This is the deferred-execution
// collaborator the propagation model is written against: a real host
// scheduler would make the same capture/install guarantees.
//
// A Loop is single threaded by construction, continuations run on the
// caller's goroutine during [Loop.Run] or [Loop.Drain].
package loop

import (
	"go.followtheprocess.codes/asyncctx"
)

// A continuation is a unit of deferred work plus the mapping that was current
// when it was scheduled.
type continuation struct {
	fn   func(*asyncctx.Task) error
	snap asyncctx.Snapshot
}

// Loop is a run-to-completion event loop with one logical task of execution.
type Loop struct {
	task  *asyncctx.Task
	queue []continuation
}

// New returns a new, empty [Loop].
func New() *Loop {
	return &Loop{task: asyncctx.NewTask()}
}

// Task returns the loop's logical task. Scopes entered on this task from
// within loop callbacks propagate into continuations scheduled while they
// are active.
func (l *Loop) Task() *asyncctx.Task {
	return l.task
}

// Pending returns the number of continuations currently queued.
func (l *Loop) Pending() int {
	return len(l.queue)
}

// Go schedules fn to run on the next drain, capturing the task's current
// mapping now. Whatever mapping is current when fn eventually runs, fn
// observes the mapping that was current at this call.
func (l *Loop) Go(fn func(*asyncctx.Task) error) {
	l.queue = append(l.queue, continuation{
		fn:   fn,
		snap: asyncctx.Capture(l.task),
	})
}

// Run invokes fn on the loop's task then drains the queue, returning the
// first error encountered.
func (l *Loop) Run(fn func(*asyncctx.Task) error) error {
	if err := fn(l.task); err != nil {
		return err
	}

	return l.Drain()
}

// Drain runs queued continuations in FIFO order until the queue is empty,
// each with its captured mapping installed for the duration of the call.
// Continuations may schedule further continuations, these are drained too.
//
// The first continuation error stops the drain and is returned, anything
// still queued stays queued.
func (l *Loop) Drain() error {
	for len(l.queue) > 0 {
		next := l.queue[0]
		l.queue = l.queue[1:]

		err := next.snap.Run(l.task, func() error {
			return next.fn(l.task)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Discard drops all pending continuations without running them, returning
// how many were dropped. No mapping restoration is involved because a
// discarded continuation's mapping was never installed.
func (l *Loop) Discard() int {
	dropped := len(l.queue)
	l.queue = nil

	return dropped
}
