package aspect

import (
	"log/slog"

	"github.com/xraph/aspect/hook"
	"github.com/xraph/aspect/middleware"
	"github.com/xraph/aspect/sched"
)

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the structured logger for the composer and everything
// compiled from it.
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = l
	}
}

// WithScheduler sets the scheduler used for deferred targets. Defaults to
// the shared sched.Default queue.
func WithScheduler(s sched.Scheduler) Option {
	return func(c *Composer) {
		c.scheduler = s
	}
}

// WithMiddleware appends middleware applied around every execution of a
// compiled plan. Middleware run in the order given, outermost first.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *Composer) {
		c.mws = append(c.mws, mws...)
	}
}

// WithExtensions registers lifecycle extensions notified of execution
// events (see the hook package).
func WithExtensions(exts ...hook.Extension) Option {
	return func(c *Composer) {
		c.exts = append(c.exts, exts...)
	}
}
