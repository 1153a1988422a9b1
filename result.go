package aspect

import (
	"context"
	"sync"
)

// Result is a future for one execution of a compiled plan.
//
// Synchronous executions return an already-resolved Result. Deferred
// executions return a pending one that resolves when the scheduled body
// finishes. A Result resolves exactly once; its value and error never
// change afterwards.
type Result struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc

	// Written once before done is closed, read only after.
	value any
	err   error
}

// newPendingResult creates an unresolved Result. cancel may be nil.
func newPendingResult(cancel context.CancelFunc) *Result {
	return &Result{done: make(chan struct{}), cancel: cancel}
}

// newResolvedResult creates a Result that is already settled.
func newResolvedResult(value any, err error) *Result {
	r := newPendingResult(nil)
	r.resolve(value, err)
	return r
}

// resolve settles the result. Later calls are no-ops.
func (r *Result) resolve(value any, err error) {
	r.once.Do(func() {
		r.value = value
		r.err = err
		close(r.done)
	})
}

// Done returns a channel that is closed once the result is resolved.
func (r *Result) Done() <-chan struct{} { return r.done }

// Resolved reports whether the result has settled.
func (r *Result) Resolved() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the result resolves or ctx is done. On ctx expiry it
// returns ctx.Err(); the execution itself keeps running and the Result can
// still be waited on again.
func (r *Result) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Value returns the resolved value, or nil while pending.
func (r *Result) Value() any {
	if !r.Resolved() {
		return nil
	}
	return r.value
}

// Err returns the resolved error, or nil while pending.
func (r *Result) Err() error {
	if !r.Resolved() {
		return nil
	}
	return r.err
}

// Cancel withdraws a still-pending deferred execution: the result resolves
// with context.Canceled and the execution context is cancelled. A body
// already in flight sees its context cancelled, but its outcome is
// discarded. Cancel is a no-op on a resolved Result.
func (r *Result) Cancel() {
	if r.cancel != nil {
		r.cancel()
	}
	r.resolve(nil, context.Canceled)
}
