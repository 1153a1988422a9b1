package middleware

import (
	"context"
	"time"

	"github.com/xraph/aspect/plan"
)

// Timeout returns middleware that enforces an execution deadline.
// When d is positive, a context.WithTimeout wraps the protocol run; bound
// functions that accept a context should honor its cancellation. A zero or
// negative d makes the middleware a pass-through.
func Timeout(d time.Duration) Middleware {
	return func(ctx context.Context, _ *plan.Execution, next Handler) (any, error) {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
