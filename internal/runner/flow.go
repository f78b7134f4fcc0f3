package runner

import (
	"fmt"

	"github.com/rs/zerolog"
	"go.followtheprocess.codes/asyncctx"
	"go.followtheprocess.codes/asyncctx/internal/syntax"
	"go.followtheprocess.codes/asyncctx/loop"
)

// A Flow is a resolved, executable scenario.
//
// It differs from its counterpart in the syntax package in that every step has
// been checked against the declarations: all referenced variables are
// declared, declarations are unique, and schedule labels are unique. This
// resolution means the scenario can be executed without reference errors.
type Flow struct {
	vars  map[string]*asyncctx.Variable[string]
	name  string
	steps []syntax.Step
}

// Name returns the name of the resolved flow.
func (f Flow) Name() string {
	return f.name
}

// Resolve converts a [syntax.Flow] into an executable [Flow], checking all
// variable and label references.
func Resolve(in syntax.Flow) (Flow, error) {
	resolved := Flow{
		name:  in.Name,
		vars:  make(map[string]*asyncctx.Variable[string], len(in.Vars)),
		steps: in.Steps,
	}

	for _, decl := range in.Vars {
		if _, exists := resolved.vars[decl.Name]; exists {
			return Flow{}, fmt.Errorf("variable %s declared more than once", decl.Name)
		}

		resolved.vars[decl.Name] = asyncctx.New(decl.Name, asyncctx.WithDefault(decl.Default))
	}

	labels := make(map[string]bool)
	if err := check(in.Steps, resolved.vars, labels); err != nil {
		return Flow{}, err
	}

	return resolved, nil
}

// check validates a run of steps (recursively) against the declared variables,
// recording schedule labels as it goes so duplicates can be caught.
func check(steps []syntax.Step, vars map[string]*asyncctx.Variable[string], labels map[string]bool) error {
	for _, step := range steps {
		if step.Var != "" {
			if _, ok := vars[step.Var]; !ok {
				return fmt.Errorf("step references undeclared variable %s", step.Var)
			}
		}

		if step.Kind == syntax.KindSchedule {
			if labels[step.Label] {
				return fmt.Errorf("schedule label %s used more than once", step.Label)
			}
			labels[step.Label] = true
		}

		if err := check(step.Body, vars, labels); err != nil {
			return err
		}
	}

	return nil
}

// Execute runs the flow to completion on a fresh event loop, returning the
// observations made along the way as a [Trace].
func (f Flow) Execute(logger zerolog.Logger) (Trace, error) {
	execution := &execution{
		flow:   f,
		loop:   loop.New(),
		trace:  Trace{Name: f.name},
		logger: logger,
	}

	for _, step := range f.steps {
		if err := execution.step(step, mainStrand); err != nil {
			return Trace{}, err
		}
	}

	if pending := execution.loop.Pending(); pending > 0 {
		logger.Debug().Int("pending", pending).Msg("flow finished with continuations still queued")
	}

	return execution.trace, nil
}

// mainStrand is the label used for events observed on the main task rather
// than inside a scheduled continuation.
const mainStrand = ""

// execution is the in-progress state of a single [Flow.Execute] call.
type execution struct {
	loop   *loop.Loop
	flow   Flow
	trace  Trace
	logger zerolog.Logger
}

// step executes a single step, recursing into block bodies. strand is the
// label of the continuation the step is running in, or [mainStrand].
func (e *execution) step(step syntax.Step, strand string) error {
	task := e.loop.Task()

	switch step.Kind {
	case syntax.KindGet:
		variable := e.flow.vars[step.Var]
		e.observe(Event{Op: OpGet, Strand: strand, Var: step.Var, Value: variable.Get(task)})

	case syntax.KindScope:
		variable := e.flow.vars[step.Var]
		err := asyncctx.With(variable.WithValue(task, step.Value), func() error {
			e.observe(Event{Op: OpEnter, Strand: strand, Var: step.Var, Value: step.Value})
			return e.steps(step.Body, strand)
		})
		if err != nil {
			return err
		}
		e.observe(Event{Op: OpDispose, Strand: strand, Var: step.Var, Value: variable.Get(task)})

	case syntax.KindRun:
		variable := e.flow.vars[step.Var]
		err := variable.Run(task, step.Value, func() error {
			e.observe(Event{Op: OpRun, Strand: strand, Var: step.Var, Value: step.Value})
			return e.steps(step.Body, strand)
		})
		if err != nil {
			return err
		}
		e.observe(Event{Op: OpRestore, Strand: strand, Var: step.Var, Value: variable.Get(task)})

	case syntax.KindSchedule:
		e.observe(Event{Op: OpSchedule, Strand: strand, Value: step.Label})
		e.loop.Go(func(*asyncctx.Task) error {
			// The loop reinstates the mapping captured just now before this
			// body runs, however much later that is
			return e.steps(step.Body, step.Label)
		})

	case syntax.KindDrain:
		e.observe(Event{Op: OpDrain, Strand: strand})
		return e.loop.Drain()

	case syntax.KindInvalid:
		return fmt.Errorf("cannot execute invalid step %v", step)
	}

	return nil
}

// steps executes a run of steps in order, stopping at the first error.
func (e *execution) steps(steps []syntax.Step, strand string) error {
	for _, step := range steps {
		if err := e.step(step, strand); err != nil {
			return err
		}
	}

	return nil
}

// observe appends an event to the trace, debug logging it as it goes past.
func (e *execution) observe(event Event) {
	e.logger.Debug().
		Str("op", event.Op).
		Str("strand", event.Strand).
		Str("var", event.Var).
		Str("value", event.Value).
		Int("bindings", e.loop.Task().Bindings()).
		Int("pending", e.loop.Pending()).
		Msg("observe")

	e.trace.Events = append(e.trace.Events, event)
}
