// Package middleware provides composable middleware for plan execution.
//
// A [Middleware] is a function that wraps one run of a compiled plan.
// Middleware are composed into a chain using [Chain] and applied around the
// whole composition protocol — before calls, target, and after calls run
// inside the innermost handler. They are applied right-to-left: the first
// middleware in the slice is the outermost wrapper.
//
//	// logging → recover → protocol
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs execution start, duration, and outcome
//   - [Recover] — catches panics in any phase and converts them to errors
//   - [Timeout] — cancels the execution context after a configured duration
//   - [Tracing] — wraps execution in an OpenTelemetry span
//   - [Metrics] — records per-execution duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, e *plan.Execution, next middleware.Handler) (any, error) {
//	        // pre-processing
//	        v, err := next(ctx)
//	        // post-processing
//	        return v, err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting (e.g., circuit breaker, rate limiting).
package middleware
