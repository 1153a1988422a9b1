// Package plan provides the compiled form of a composition — an immutable
// snapshot of before calls, an optional target, and after calls — plus the
// execution protocol that runs them in a fixed order.
//
// Compiling to an immutable Plan means registrations made after Compile
// never affect executables that were already handed out.
package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/aspect/call"
	"github.com/xraph/aspect/id"
)

// Plan is an immutable, compiled composition. It is safe for concurrent use
// and may be executed any number of times; each run gets its own Execution
// record.
type Plan struct {
	id       id.PlanID
	before   []call.Call
	target   call.Call
	after    []call.Call
	deferred bool
}

// New builds a Plan from the given phase lists. The slices are cloned so
// later mutation by the caller cannot reach the compiled plan. A zero
// target is valid: the target phase is then a no-op.
func New(before []call.Call, target call.Call, after []call.Call, deferred bool) *Plan {
	return &Plan{
		id:       id.NewPlanID(),
		before:   append([]call.Call(nil), before...),
		target:   target,
		after:    append([]call.Call(nil), after...),
		deferred: deferred,
	}
}

// ID returns the plan's unique identifier.
func (p *Plan) ID() id.PlanID { return p.id }

// Deferred reports whether the target phase should run on a scheduler
// rather than synchronously inside the caller.
func (p *Plan) Deferred() bool { return p.deferred }

// HasTarget reports whether a target call was set.
func (p *Plan) HasTarget() bool { return !p.target.IsZero() }

// TargetName returns the target function's name, or "<nil>" when no
// target was set.
func (p *Plan) TargetName() string { return p.target.Name() }

// Execution is the per-run record passed to middleware and lifecycle
// extensions. Fields are populated when the run starts and are read-only
// from the point of view of middleware.
type Execution struct {
	ID          id.ExecutionID
	PlanID      id.PlanID
	Target      string
	BeforeCalls int
	AfterCalls  int
	Deferred    bool
	StartedAt   time.Time
}

// NewExecution creates the record for one run of the plan.
func (p *Plan) NewExecution() *Execution {
	return &Execution{
		ID:          id.NewExecutionID(),
		PlanID:      p.id,
		Target:      p.target.Name(),
		BeforeCalls: len(p.before),
		AfterCalls:  len(p.after),
		Deferred:    p.deferred,
		StartedAt:   time.Now().UTC(),
	}
}

// Run executes the composition protocol:
//
//  1. The after list is partitioned into best-effort and ensured sublists,
//     preserving relative order within each.
//  2. Before calls run in registration order. A before failure is fatal:
//     the error propagates immediately and neither the target nor any
//     after call (ensured included) runs.
//  3. The target runs (a no-op when none was set), then the best-effort
//     after calls in order, then the ensured after calls in order. Ensured
//     calls run even when the target or a best-effort after call failed.
//
// The returned value is the target's return value. A target error skips
// the best-effort after calls and propagates once the ensured calls have
// run. An ensured call's own error is joined onto the primary error, or
// becomes the primary error when there is none.
//
// Run ignores the plan's deferred flag; scheduling is the executor's job.
func (p *Plan) Run(ctx context.Context) (any, error) {
	if err := p.RunBefore(ctx); err != nil {
		return nil, err
	}

	return p.RunTail(ctx)
}

// RunBefore runs the before phase in registration order. The first error
// aborts the phase and is returned.
func (p *Plan) RunBefore(ctx context.Context) error {
	for _, c := range p.before {
		if _, err := c.Invoke(ctx); err != nil {
			return fmt.Errorf("before call %s: %w", c.Name(), err)
		}
	}

	return nil
}

// RunTail runs the target and after phases (protocol steps past the before
// phase). Deferred plans schedule exactly this portion.
func (p *Plan) RunTail(ctx context.Context) (any, error) {
	return p.RunTailWith(ctx, nil)
}

// RunTailWith is RunTail with a target observer: a non-nil onTarget is
// invoked with the target's return value after it returns successfully,
// before any after call runs. A failed target skips the observer.
func (p *Plan) RunTailWith(ctx context.Context, onTarget func(value any)) (any, error) {
	// Partitioned per execution, not at registration time.
	bestEffort, ensured := partition(p.after)

	return p.runTail(ctx, bestEffort, ensured, onTarget)
}

// runTail runs the target and after phases. The ensured calls sit in a
// defer so they run even when the target panics.
func (p *Plan) runTail(ctx context.Context, bestEffort, ensured []call.Call, onTarget func(value any)) (value any, err error) {
	defer func() {
		for _, c := range ensured {
			if _, ensErr := c.Invoke(ctx); ensErr != nil {
				err = errors.Join(err, fmt.Errorf("ensured after call %s: %w", c.Name(), ensErr))
			}
		}
	}()

	value, err = p.target.Invoke(ctx)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", p.target.Name(), err)
	}
	if onTarget != nil {
		onTarget(value)
	}

	for _, c := range bestEffort {
		if _, afterErr := c.Invoke(ctx); afterErr != nil {
			return value, fmt.Errorf("after call %s: %w", c.Name(), afterErr)
		}
	}

	return value, nil
}

// partition splits the after list into best-effort and ensured sublists,
// keeping the relative order inside each.
func partition(after []call.Call) (bestEffort, ensured []call.Call) {
	for _, c := range after {
		if c.Ensured() {
			ensured = append(ensured, c)
		} else {
			bestEffort = append(bestEffort, c)
		}
	}

	return bestEffort, ensured
}
