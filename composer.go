package aspect

import (
	"context"
	"log/slog"

	"github.com/xraph/aspect/call"
	"github.com/xraph/aspect/hook"
	"github.com/xraph/aspect/middleware"
	"github.com/xraph/aspect/plan"
	"github.com/xraph/aspect/sched"
)

// Composer accumulates ordered before calls, at most one target call, and
// ordered after calls, then compiles them into an immutable Executable.
//
// Registration methods return the Composer for chaining. A Composer is not
// safe for concurrent mutation; build it on one goroutine. Compiled
// Executables are immutable and safe for concurrent use — registrations
// made after Compile never affect executables already handed out.
type Composer struct {
	before   []call.Call
	target   call.Call
	after    []call.Call
	deferred bool

	// err is the first configuration error (sticky). It is surfaced by
	// Err, Compile, and Execute rather than panicking mid-chain.
	err error

	logger    *slog.Logger
	scheduler sched.Scheduler
	mws       []middleware.Middleware
	exts      []hook.Extension
}

// New creates an empty Composer.
func New(opts ...Option) *Composer {
	c := &Composer{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scheduler == nil {
		c.scheduler = sched.Default()
	}

	return c
}

// RegisterBefore appends a before-phase call. A non-callable fn is a
// silent no-op.
func (c *Composer) RegisterBefore(fn any, args ...any) *Composer {
	bc, ok := call.Bind(call.PhaseBefore, fn, args...)
	if !ok {
		c.logger.Debug("before registration ignored: not callable")
		return c
	}
	c.before = append(c.before, bc)

	return c
}

// SetTarget sets the target call. Setting a second target records
// ErrTargetAlreadySet (surfaced by Err, Compile, and Execute) and keeps
// the first target. A non-callable fn is a silent no-op.
func (c *Composer) SetTarget(fn any, args ...any) *Composer {
	return c.setTarget(fn, args, false)
}

// SetAsyncTarget is SetTarget plus marking the plan deferred: the target
// and after phases run on the scheduler instead of inside Execute.
func (c *Composer) SetAsyncTarget(fn any, args ...any) *Composer {
	return c.setTarget(fn, args, true)
}

func (c *Composer) setTarget(fn any, args []any, deferred bool) *Composer {
	bc, ok := call.Bind(call.PhaseTarget, fn, args...)
	if !ok {
		c.logger.Debug("target registration ignored: not callable")
		return c
	}
	if !c.target.IsZero() {
		if c.err == nil {
			c.err = ErrTargetAlreadySet
		}
		return c
	}
	c.target = bc
	c.deferred = deferred

	return c
}

// RegisterAfter appends a best-effort after-phase call. A non-callable fn
// is a silent no-op.
func (c *Composer) RegisterAfter(fn any, args ...any) *Composer {
	bc, ok := call.Bind(call.PhaseAfter, fn, args...)
	if !ok {
		c.logger.Debug("after registration ignored: not callable")
		return c
	}
	c.after = append(c.after, bc)

	return c
}

// RegisterAfterEnsured appends an ensured after-phase call: it runs even
// when the target or a best-effort after call fails. A non-callable fn is
// a silent no-op.
func (c *Composer) RegisterAfterEnsured(fn any, args ...any) *Composer {
	bc, ok := call.BindEnsured(call.PhaseAfter, fn, args...)
	if !ok {
		c.logger.Debug("ensured after registration ignored: not callable")
		return c
	}
	c.after = append(c.after, bc)

	return c
}

// Err returns the first configuration error recorded during registration,
// or nil.
func (c *Composer) Err() error { return c.err }

// Compile snapshots the current configuration into an immutable
// Executable. It may be called multiple times; each Executable is
// independent of later registrations. A recorded configuration error is
// returned here.
func (c *Composer) Compile() (*Executable, error) {
	if c.err != nil {
		return nil, c.err
	}

	hooks := hook.NewRegistry(c.logger)
	for _, e := range c.exts {
		hooks.Register(e)
	}

	return &Executable{
		plan:      plan.New(c.before, c.target, c.after, c.deferred),
		mw:        middleware.Chain(c.mws...),
		hooks:     hooks,
		scheduler: c.scheduler,
		logger:    c.logger,
	}, nil
}

// Execute compiles and immediately runs the composition.
//
// For a synchronous plan the returned Result is already resolved and the
// run's error is also returned directly. For a deferred plan the Result is
// pending and the returned error covers configuration errors, before-phase
// failures, and scheduling failures; the deferred target's outcome is
// observable solely through the Result.
func (c *Composer) Execute(ctx context.Context) (*Result, error) {
	x, err := c.Compile()
	if err != nil {
		return nil, err
	}

	res := x.Execute(ctx)
	if !x.plan.Deferred() || res.Resolved() {
		// Resolved covers the deferred cases that surface synchronously:
		// a before-phase failure and a scheduling failure.
		return res, res.Err()
	}

	return res, nil
}
