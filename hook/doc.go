// Package hook provides lifecycle extensions for plan execution.
//
// An [Extension] registers once on a [Registry] and receives the lifecycle
// events it opts into by implementing the corresponding hook interface:
//
//   - [ExecutionStarted] — a run began
//   - [ExecutionScheduled] — a deferred run was handed to the scheduler
//   - [BeforePhaseCompleted] — every before call ran without error
//   - [TargetCompleted] — the target returned successfully, with its value
//   - [ExecutionCompleted] — a run finished, with its value and duration
//   - [ExecutionFailed] — a run failed in any phase
//
// Hook errors are logged and never affect the execution that emitted them.
// Extensions are notified synchronously in registration order; long-running
// work belongs on the extension's own goroutine.
//
//	type auditor struct{ log *slog.Logger }
//
//	func (a *auditor) Name() string { return "auditor" }
//
//	func (a *auditor) OnExecutionFailed(ctx context.Context, e *plan.Execution, err error) error {
//	    a.log.Warn("composition failed", "execution_id", e.ID, "error", err)
//	    return nil
//	}
package hook
