package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/aspect/plan"
)

// Logging returns middleware that logs execution start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e *plan.Execution, next Handler) (any, error) {
		logger.Info("execution started",
			slog.String("execution_id", e.ID.String()),
			slog.String("plan_id", e.PlanID.String()),
			slog.String("target", e.Target),
			slog.Bool("deferred", e.Deferred),
		)

		start := time.Now()
		v, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("execution failed",
				slog.String("execution_id", e.ID.String()),
				slog.String("target", e.Target),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("execution completed",
				slog.String("execution_id", e.ID.String()),
				slog.String("target", e.Target),
				slog.Duration("elapsed", elapsed),
			)
		}

		return v, err
	}
}
