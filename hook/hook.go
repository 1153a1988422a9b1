// Package hook defines the extension system for aspect.
// Extensions are notified of execution lifecycle events (started,
// scheduled, completed, failed) and can react to them — audit logs,
// metrics, alerting, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package hook

import (
	"context"
	"time"

	"github.com/xraph/aspect/plan"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ExecutionStarted is called when a run of a compiled plan begins.
// For deferred plans it fires when the scheduled body starts running,
// not when the plan is handed to the scheduler.
type ExecutionStarted interface {
	OnExecutionStarted(ctx context.Context, e *plan.Execution) error
}

// ExecutionScheduled is called when a deferred execution is handed to the
// scheduler, before its body has run.
type ExecutionScheduled interface {
	OnExecutionScheduled(ctx context.Context, e *plan.Execution) error
}

// BeforePhaseCompleted is called once every before call has run without
// error, prior to the target. A failed before phase skips this hook and
// reports through ExecutionFailed instead.
type BeforePhaseCompleted interface {
	OnBeforePhaseCompleted(ctx context.Context, e *plan.Execution) error
}

// TargetCompleted is called when the target call returns successfully,
// carrying its return value, before the after phase runs. A failed target
// skips this hook.
type TargetCompleted interface {
	OnTargetCompleted(ctx context.Context, e *plan.Execution, value any) error
}

// ExecutionCompleted is called after an execution finishes successfully.
type ExecutionCompleted interface {
	OnExecutionCompleted(ctx context.Context, e *plan.Execution, value any, elapsed time.Duration) error
}

// ExecutionFailed is called when an execution fails in any phase.
type ExecutionFailed interface {
	OnExecutionFailed(ctx context.Context, e *plan.Execution, err error) error
}
