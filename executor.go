package aspect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/aspect/hook"
	"github.com/xraph/aspect/middleware"
	"github.com/xraph/aspect/plan"
	"github.com/xraph/aspect/sched"
)

// Executable is one compiled composition bound to its middleware chain,
// lifecycle extensions, and scheduler. It is immutable and safe for
// concurrent use; Execute may be called any number of times.
type Executable struct {
	plan      *plan.Plan
	mw        middleware.Middleware
	hooks     *hook.Registry
	scheduler sched.Scheduler
	logger    *slog.Logger
}

// Plan returns the compiled plan.
func (x *Executable) Plan() *plan.Plan { return x.plan }

// Execute runs the composition once.
//
// Synchronous plans run the whole protocol inside the call and return an
// already-resolved Result. Deferred plans run the before phase eagerly,
// then hand the target and after phases to the scheduler and return a
// pending Result; the deferred body is detached from the caller's
// cancellation and is cancelled through the Result instead.
//
// The eager before phase of a deferred plan runs outside the middleware
// chain: the chain wraps only the scheduled tail, so it observes exactly
// one run per execution. A before failure on that path therefore skips the
// middleware and emits ExecutionFailed without a preceding
// ExecutionStarted. Synchronous plans run the before phase inside the
// chain.
func (x *Executable) Execute(ctx context.Context) *Result {
	e := x.plan.NewExecution()

	if !x.plan.Deferred() {
		v, err := x.run(ctx, e, func(ctx context.Context) (any, error) {
			if err := x.plan.RunBefore(ctx); err != nil {
				return nil, err
			}
			x.hooks.EmitBeforePhaseCompleted(ctx, e)

			return x.runTail(ctx, e)
		})
		return newResolvedResult(v, err)
	}

	// The before phase stays synchronous even for a deferred plan: its
	// errors propagate to the caller of Execute.
	if err := x.plan.RunBefore(ctx); err != nil {
		x.hooks.EmitExecutionFailed(ctx, e, err)
		return newResolvedResult(nil, err)
	}
	x.hooks.EmitBeforePhaseCompleted(ctx, e)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	res := newPendingResult(cancel)

	x.hooks.EmitExecutionScheduled(ctx, e)

	task := func() {
		if err := runCtx.Err(); err != nil {
			res.resolve(nil, err)
			return
		}
		v, err := x.run(runCtx, e, func(ctx context.Context) (any, error) {
			return x.runTail(ctx, e)
		})
		res.resolve(v, err)
	}

	if err := x.scheduler.Submit(task); err != nil {
		cancel()
		x.logger.Error("deferred execution not scheduled",
			slog.String("execution_id", e.ID.String()),
			slog.String("error", err.Error()),
		)
		res.resolve(nil, fmt.Errorf("%w: %w", ErrScheduleFailed, err))
	}

	return res
}

// runTail runs the target and after phases, emitting TargetCompleted when
// the target returns successfully.
func (x *Executable) runTail(ctx context.Context, e *plan.Execution) (any, error) {
	return x.plan.RunTailWith(ctx, func(v any) {
		x.hooks.EmitTargetCompleted(ctx, e, v)
	})
}

// run executes the given protocol body through the middleware chain and
// emits lifecycle events around it.
func (x *Executable) run(ctx context.Context, e *plan.Execution, body func(context.Context) (any, error)) (any, error) {
	x.hooks.EmitExecutionStarted(ctx, e)
	start := time.Now()

	v, err := x.mw(ctx, e, body)
	if err != nil {
		x.hooks.EmitExecutionFailed(ctx, e, err)
		return nil, err
	}

	x.hooks.EmitExecutionCompleted(ctx, e, v, time.Since(start))

	return v, nil
}
