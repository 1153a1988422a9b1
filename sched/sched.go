// Package sched provides the scheduling capability for deferred target
// execution. The core protocol never touches timers or goroutines directly;
// it submits the deferred body to a Scheduler, which keeps the ordering
// logic testable without real time dependencies.
package sched

import (
	"errors"
	"sync"
)

// Scheduler defers a task to a later turn. Submit must not run the task
// before returning unless the implementation is explicitly inline; the
// production Queue runs tasks strictly after Submit returns, in submission
// order, on a single goroutine.
type Scheduler interface {
	Submit(task func()) error
}

var (
	// ErrStopped is returned by Submit after the scheduler has stopped.
	ErrStopped = errors.New("sched: scheduler stopped")
	// ErrFull is returned by Submit when the task buffer is exhausted.
	ErrFull = errors.New("sched: task buffer full")
)

// ──────────────────────────────────────────────────
// Inline
// ──────────────────────────────────────────────────

// Inline runs every task synchronously inside Submit. It degenerates
// deferred execution into immediate execution; useful in tests and in
// embeddings that want async-composed plans to behave synchronously.
type Inline struct{}

// Submit runs the task immediately on the calling goroutine.
func (Inline) Submit(task func()) error {
	task()
	return nil
}

// ──────────────────────────────────────────────────
// Manual
// ──────────────────────────────────────────────────

// Manual collects submitted tasks and runs them only when the test drives
// it. It makes "a later turn" a deterministic, observable step.
type Manual struct {
	mu    sync.Mutex
	tasks []func()
}

// Submit queues the task without running it.
func (m *Manual) Submit(task func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)

	return nil
}

// Len returns the number of pending tasks.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.tasks)
}

// RunNext runs the oldest pending task. Returns false when none is pending.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if len(m.tasks) == 0 {
		m.mu.Unlock()
		return false
	}
	task := m.tasks[0]
	m.tasks = m.tasks[1:]
	m.mu.Unlock()

	task()

	return true
}

// RunAll runs pending tasks until the queue drains, including tasks
// submitted by the tasks themselves. Returns the number of tasks run.
func (m *Manual) RunAll() int {
	n := 0
	for m.RunNext() {
		n++
	}

	return n
}
