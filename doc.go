// Package aspect provides a small aspect-oriented function composition
// library. A Composer accumulates before functions, one target function,
// and after functions (best-effort or ensured), then compiles them into an
// immutable, repeatedly executable plan.
//
// Aspect is designed as a library, not a framework. Register ordinary Go
// functions of any signature; binding is reflection-based and a function
// whose first parameter is a context.Context receives the execution context.
//
// # Quick Start
//
//	c := aspect.New().
//	    RegisterBefore(log, "start").
//	    SetTarget(add, 2, 3).
//	    RegisterAfter(log, "done")
//
//	res, err := c.Execute(context.Background())
//
// # Execution protocol
//
// Before calls run in registration order; a before failure aborts the run.
// The target runs next, then best-effort after calls in order, then ensured
// after calls in order. Ensured calls run even when the target or a
// best-effort after call failed (finally semantics).
//
// # Deferred targets
//
// SetAsyncTarget marks the plan deferred: Execute hands the target and
// after phases to a scheduler and returns a pending Result immediately.
// The Result is a future — wait on it, poll it, or cancel it. Scheduling
// is a capability (see the sched package) so deferred behavior stays
// deterministic under test.
package aspect
