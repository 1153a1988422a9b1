package aspect

import "errors"

var (
	// Configuration errors.
	ErrTargetAlreadySet = errors.New("aspect: target already set")

	// Scheduling errors. The deferred branch wraps the scheduler's own
	// error (sched.ErrStopped, sched.ErrFull) with ErrScheduleFailed.
	ErrScheduleFailed = errors.New("aspect: schedule deferred execution")
)
