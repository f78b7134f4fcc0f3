package loop_test

import (
	"errors"
	"slices"
	"testing"

	"go.followtheprocess.codes/asyncctx"
	"go.followtheprocess.codes/asyncctx/loop"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

func TestContinuationCapture(t *testing.T) {
	v := asyncctx.New("v", asyncctx.WithDefault("default"))
	l := loop.New()

	var observed []string
	observe := func(task *asyncctx.Task) error {
		observed = append(observed, v.Get(task))
		return nil
	}

	err := l.Run(func(task *asyncctx.Task) error {
		// Worked scenario: two sibling scopes, each scheduling a
		// continuation, each continuation must observe the mapping current
		// when it was scheduled, not when it runs
		if err := asyncctx.With(v.WithValue(task, "value-1"), func() error {
			l.Go(observe)
			return nil
		}); err != nil {
			return err
		}

		if err := asyncctx.With(v.WithValue(task, "value-2"), func() error {
			l.Go(observe)
			return nil
		}); err != nil {
			return err
		}

		// Both scopes disposed, nothing has run yet
		test.Equal(t, v.Get(task), "default")
		test.Equal(t, l.Pending(), 2)

		return nil
	})
	test.Ok(t, err)

	test.EqualFunc(t, observed, []string{"value-1", "value-2"}, slices.Equal)
}

func TestNestedCapture(t *testing.T) {
	// The tracing use case: work scheduled after a child scope is disposed
	// sees the parent's binding but not the child's
	span := asyncctx.New("span", asyncctx.WithDefault("none"))
	l := loop.New()

	var observed []string
	observe := func(task *asyncctx.Task) error {
		observed = append(observed, span.Get(task))
		return nil
	}

	err := l.Run(func(task *asyncctx.Task) error {
		return asyncctx.With(span.WithValue(task, "parent"), func() error {
			if err := asyncctx.With(span.WithValue(task, "child"), func() error {
				l.Go(observe) // Scheduled inside child
				return nil
			}); err != nil {
				return err
			}

			l.Go(observe) // Scheduled after child disposed, sees parent
			return nil
		})
	})
	test.Ok(t, err)

	test.EqualFunc(t, observed, []string{"child", "parent"}, slices.Equal)
}

func TestContinuationsScheduleContinuations(t *testing.T) {
	v := asyncctx.New("v", asyncctx.WithDefault("default"))
	l := loop.New()

	var observed []string
	err := l.Run(func(task *asyncctx.Task) error {
		return asyncctx.With(v.WithValue(task, "outer"), func() error {
			l.Go(func(task *asyncctx.Task) error {
				observed = append(observed, v.Get(task))

				// Scheduled while the captured "outer" mapping is
				// reinstated, so it propagates again
				l.Go(func(task *asyncctx.Task) error {
					observed = append(observed, v.Get(task))
					return nil
				})

				return nil
			})
			return nil
		})
	})
	test.Ok(t, err)

	test.EqualFunc(t, observed, []string{"outer", "outer"}, slices.Equal)
}

func TestDrainError(t *testing.T) {
	l := loop.New()
	boom := errors.New("boom")

	var ran int
	l.Go(func(*asyncctx.Task) error {
		ran++
		return boom
	})
	l.Go(func(*asyncctx.Task) error {
		ran++
		return nil
	})

	err := l.Drain()
	test.True(t, errors.Is(err, boom), test.Context("continuation error should propagate"))

	// The failing continuation stopped the drain, the second stayed queued
	test.Equal(t, ran, 1)
	test.Equal(t, l.Pending(), 1)

	test.Ok(t, l.Drain())
	test.Equal(t, ran, 2)
}

func TestDiscard(t *testing.T) {
	v := asyncctx.New("v", asyncctx.WithDefault("default"))
	l := loop.New()

	ran := false
	err := l.Run(func(task *asyncctx.Task) error {
		return asyncctx.With(v.WithValue(task, "cancelled"), func() error {
			l.Go(func(*asyncctx.Task) error {
				ran = true
				return nil
			})

			// Cancellation simply drops the continuation, no restoration is
			// needed because its mapping was never installed
			test.Equal(t, l.Discard(), 1)
			return nil
		})
	})
	test.Ok(t, err)

	test.False(t, ran)
	test.Equal(t, l.Pending(), 0)
	test.Equal(t, v.Get(l.Task()), "default")
}

func TestCrossLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Producer loop captures a snapshot inside a scope, a consumer loop on
	// another goroutine runs a continuation with it installed
	v := asyncctx.New("v", asyncctx.WithDefault("default"))
	producer := loop.New()

	var snap asyncctx.Snapshot
	err := producer.Run(func(task *asyncctx.Task) error {
		return asyncctx.With(v.WithValue(task, "handed over"), func() error {
			snap = asyncctx.Capture(task)
			return nil
		})
	})
	test.Ok(t, err)

	observed := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		consumer := loop.New()
		done <- consumer.Run(func(task *asyncctx.Task) error {
			return snap.Run(task, func() error {
				observed <- v.Get(task)
				return nil
			})
		})
	}()

	test.Ok(t, <-done)
	test.Equal(t, <-observed, "handed over")
}
