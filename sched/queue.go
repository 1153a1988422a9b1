package sched

import (
	"context"
	"log/slog"
	"sync"
)

// Queue is a single-goroutine FIFO task queue. Tasks submitted while the
// queue is running execute strictly after Submit returns, in submission
// order, on the queue's worker goroutine. There is exactly one worker, so
// tasks never run concurrently with each other.
type Queue struct {
	buffer int
	logger *slog.Logger

	tasks   chan func()
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithBuffer sets the task buffer size. Submit returns ErrFull once the
// buffer is exhausted.
func WithBuffer(n int) QueueOption {
	return func(q *Queue) { q.buffer = n }
}

// NewQueue creates a task queue. The queue must be started before it
// accepts tasks.
func NewQueue(logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		buffer: 1024,
		logger: logger,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan func(), q.buffer)

	return q
}

// Start launches the worker goroutine. It returns immediately and is a
// no-op when the queue is already running.
func (q *Queue) Start(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return nil
	}
	q.running = true

	q.logger.Debug("task queue starting", slog.Int("buffer", q.buffer))

	q.wg.Add(1)
	go q.loop()

	return nil
}

// Stop signals the worker to stop and waits for it to finish. Pending
// tasks are drained before the worker exits unless the context deadline
// expires first.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.mu.Unlock()

	close(q.stopCh)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Debug("task queue stopped")
		return nil
	case <-ctx.Done():
		q.logger.Warn("task queue shutdown timed out")
		return ctx.Err()
	}
}

// Submit enqueues a task for the worker goroutine. It never blocks:
// a stopped queue returns ErrStopped and a full buffer returns ErrFull.
func (q *Queue) Submit(task func()) error {
	q.mu.Lock()
	running := q.running
	q.mu.Unlock()

	if !running {
		return ErrStopped
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrFull
	}
}

// loop is the single worker goroutine. On stop it drains tasks already
// buffered, then exits.
func (q *Queue) loop() {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			for {
				select {
				case task := <-q.tasks:
					task()
				default:
					return
				}
			}
		case task := <-q.tasks:
			task()
		}
	}
}

// defaultQueue is the shared scheduler used when a composer is built
// without an explicit one. Started lazily, never stopped.
var (
	defaultQueue     *Queue
	defaultQueueOnce sync.Once
)

// Default returns the shared, lazily started task queue.
func Default() *Queue {
	defaultQueueOnce.Do(func() {
		defaultQueue = NewQueue(slog.Default())
		_ = defaultQueue.Start(context.Background())
	})

	return defaultQueue
}
