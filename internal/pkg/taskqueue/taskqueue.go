// Package taskqueue runs best-effort background work on a bounded pool of
// workers, detached from the request that enqueued it.
package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultTaskTimeout = 30 * time.Second

// Task is a unit of background work.
type Task struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Dispatcher accepts tasks. Enqueue never blocks and reports whether the
// task was accepted.
type Dispatcher interface {
	Enqueue(task Task) bool
}

// Observer is told about tasks that never completed cleanly.
type Observer interface {
	TaskDropped(name string)
	TaskFailed(name string)
	QueueDepth(n int)
}

type nopObserver struct{}

func (nopObserver) TaskDropped(string) {}
func (nopObserver) TaskFailed(string)  {}
func (nopObserver) QueueDepth(int)     {}

// Queue is a fixed-size worker pool fed by a buffered channel.
type Queue struct {
	tasks    chan Task
	workers  int
	timeout  time.Duration
	logger   *zap.Logger
	observer Observer

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New(logger *zap.Logger, workers, size int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		tasks:    make(chan Task, size),
		workers:  workers,
		timeout:  defaultTaskTimeout,
		logger:   logger.Named("TaskQueue"),
		observer: nopObserver{},
	}
}

// Observe installs o before Start. A nil o is ignored.
func (q *Queue) Observe(o Observer) {
	if o != nil {
		q.observer = o
	}
}

// Start launches the workers. Each task runs under its own timeout derived
// from ctx, never from the enqueuing request.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(idx int) {
			defer q.wg.Done()
			for task := range q.tasks {
				q.observer.QueueDepth(len(q.tasks))
				q.run(ctx, idx, task)
			}
		}(i)
	}
}

func (q *Queue) run(ctx context.Context, idx int, task Task) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", zap.String("task", task.Name), zap.Int("worker", idx), zap.Any("panic", r))
			q.observer.TaskFailed(task.Name)
		}
	}()
	if err := task.Fn(ctx); err != nil {
		q.logger.Warn("task failed", zap.String("task", task.Name), zap.Int("worker", idx), zap.Error(err))
		q.observer.TaskFailed(task.Name)
	}
}

// Enqueue hands the task to a worker. A full or closed queue drops it.
func (q *Queue) Enqueue(task Task) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue closed, dropping task", zap.String("task", task.Name))
		q.observer.TaskDropped(task.Name)
		return false
	}
	select {
	case q.tasks <- task:
		q.observer.QueueDepth(len(q.tasks))
		return true
	default:
		q.logger.Warn("queue full, dropping task", zap.String("task", task.Name))
		q.observer.TaskDropped(task.Name)
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	q.wg.Wait()
}

// Inline runs every task synchronously on the caller's goroutine with a
// background context. Used by the maintenance CLI and tests.
type Inline struct {
	Logger *zap.Logger
}

func (i Inline) Enqueue(task Task) bool {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTaskTimeout)
	defer cancel()
	if err := task.Fn(ctx); err != nil && i.Logger != nil {
		i.Logger.Warn("task failed", zap.String("task", task.Name), zap.Error(fmt.Errorf("inline: %w", err)))
	}
	return true
}
