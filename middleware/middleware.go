// Package middleware provides composable middleware for plan execution.
// Middleware wraps the whole composition protocol synchronously and can
// modify execution (recover from panics, log, add tracing, etc.).
package middleware

import (
	"context"

	"github.com/xraph/aspect/plan"
)

// Handler is the terminal function that runs the composition protocol and
// yields the target's result value.
type Handler func(ctx context.Context) (any, error)

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the execution record, and the next
// handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, e *plan.Execution, next Handler) (any, error)

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → protocol
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, e *plan.Execution, next Handler) (any, error) {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) (any, error) {
				return mw(ctx, e, prev)
			}
		}
		return h(ctx)
	}
}
