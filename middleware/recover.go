package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/aspect/plan"
)

// Recover returns middleware that recovers from panics in any phase of the
// composition. Panics are converted to errors and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e *plan.Execution, next Handler) (v any, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("execution panicked",
					slog.String("execution_id", e.ID.String()),
					slog.String("target", e.Target),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				v = nil
				retErr = fmt.Errorf("panic in execution %s: %v", e.ID, r)
			}
		}()
		return next(ctx)
	}
}
