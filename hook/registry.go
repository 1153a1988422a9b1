package hook

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/aspect/plan"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type executionStartedEntry struct {
	name string
	hook ExecutionStarted
}

type executionScheduledEntry struct {
	name string
	hook ExecutionScheduled
}

type beforePhaseCompletedEntry struct {
	name string
	hook BeforePhaseCompleted
}

type targetCompletedEntry struct {
	name string
	hook TargetCompleted
}

type executionCompletedEntry struct {
	name string
	hook ExecutionCompleted
}

type executionFailedEntry struct {
	name string
	hook ExecutionFailed
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	executionStarted     []executionStartedEntry
	executionScheduled   []executionScheduledEntry
	beforePhaseCompleted []beforePhaseCompletedEntry
	targetCompleted      []targetCompletedEntry
	executionCompleted   []executionCompletedEntry
	executionFailed      []executionFailedEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(ExecutionStarted); ok {
		r.executionStarted = append(r.executionStarted, executionStartedEntry{name, h})
	}
	if h, ok := e.(ExecutionScheduled); ok {
		r.executionScheduled = append(r.executionScheduled, executionScheduledEntry{name, h})
	}
	if h, ok := e.(BeforePhaseCompleted); ok {
		r.beforePhaseCompleted = append(r.beforePhaseCompleted, beforePhaseCompletedEntry{name, h})
	}
	if h, ok := e.(TargetCompleted); ok {
		r.targetCompleted = append(r.targetCompleted, targetCompletedEntry{name, h})
	}
	if h, ok := e.(ExecutionCompleted); ok {
		r.executionCompleted = append(r.executionCompleted, executionCompletedEntry{name, h})
	}
	if h, ok := e.(ExecutionFailed); ok {
		r.executionFailed = append(r.executionFailed, executionFailedEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitExecutionStarted notifies all extensions that implement ExecutionStarted.
func (r *Registry) EmitExecutionStarted(ctx context.Context, e *plan.Execution) {
	for _, entry := range r.executionStarted {
		if err := entry.hook.OnExecutionStarted(ctx, e); err != nil {
			r.logHookError("OnExecutionStarted", entry.name, err)
		}
	}
}

// EmitExecutionScheduled notifies all extensions that implement ExecutionScheduled.
func (r *Registry) EmitExecutionScheduled(ctx context.Context, e *plan.Execution) {
	for _, entry := range r.executionScheduled {
		if err := entry.hook.OnExecutionScheduled(ctx, e); err != nil {
			r.logHookError("OnExecutionScheduled", entry.name, err)
		}
	}
}

// EmitBeforePhaseCompleted notifies all extensions that implement BeforePhaseCompleted.
func (r *Registry) EmitBeforePhaseCompleted(ctx context.Context, e *plan.Execution) {
	for _, entry := range r.beforePhaseCompleted {
		if err := entry.hook.OnBeforePhaseCompleted(ctx, e); err != nil {
			r.logHookError("OnBeforePhaseCompleted", entry.name, err)
		}
	}
}

// EmitTargetCompleted notifies all extensions that implement TargetCompleted.
func (r *Registry) EmitTargetCompleted(ctx context.Context, e *plan.Execution, value any) {
	for _, entry := range r.targetCompleted {
		if err := entry.hook.OnTargetCompleted(ctx, e, value); err != nil {
			r.logHookError("OnTargetCompleted", entry.name, err)
		}
	}
}

// EmitExecutionCompleted notifies all extensions that implement ExecutionCompleted.
func (r *Registry) EmitExecutionCompleted(ctx context.Context, e *plan.Execution, value any, elapsed time.Duration) {
	for _, entry := range r.executionCompleted {
		if err := entry.hook.OnExecutionCompleted(ctx, e, value, elapsed); err != nil {
			r.logHookError("OnExecutionCompleted", entry.name, err)
		}
	}
}

// EmitExecutionFailed notifies all extensions that implement ExecutionFailed.
func (r *Registry) EmitExecutionFailed(ctx context.Context, e *plan.Execution, execErr error) {
	for _, entry := range r.executionFailed {
		if err := entry.hook.OnExecutionFailed(ctx, e, execErr); err != nil {
			r.logHookError("OnExecutionFailed", entry.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors are never fatal to the
// execution that emitted them.
func (r *Registry) logHookError(hookName, extName string, err error) {
	r.logger.Error("extension hook error",
		slog.String("hook", hookName),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
