package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// WorkerRepository defines the interface for worker operations.
type WorkerRepository interface {
	// ClaimTask atomically claims the next due pending task, locking it for
	// lockDuration. Returns ErrNoTasksAvailable when nothing is due.
	ClaimTask(ctx context.Context, lockDuration time.Duration) (*Task, error)

	// CompleteTask marks the task as completed.
	CompleteTask(ctx context.Context, taskID uuid.UUID) error

	// FailTask records a failed attempt. The task is rescheduled for retryAt
	// while retries remain, otherwise marked failed permanently.
	FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string, retryAt time.Time) error
}

// Worker polls the repository for due tasks and dispatches them to registered
// handlers. The at-least-once contract lives here: a crashed worker leaves the
// task locked until the lock expires, after which another claim picks it up.
type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	mu       sync.RWMutex

	pullInterval time.Duration
	lockTimeout  time.Duration
	retryDelay   time.Duration
	logger       *slog.Logger

	started bool
}

// WorkerOption is a functional option for configuring a worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pullInterval time.Duration
	lockTimeout  time.Duration
	retryDelay   time.Duration
	logger       *slog.Logger
}

// WithPullInterval sets how often the worker checks for new tasks.
func WithPullInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pullInterval = d
		}
	}
}

// WithLockTimeout sets the lock duration for claimed tasks.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithRetryDelay sets the delay before a failed task is retried.
func WithRetryDelay(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.retryDelay = d
		}
	}
}

// WithWorkerLogger sets the logger for the worker.
func WithWorkerLogger(log *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if log != nil {
			o.logger = log
		}
	}
}

// NewWorker creates a new task worker.
func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &workerOptions{
		pullInterval: 5 * time.Second,
		lockTimeout:  5 * time.Minute,
		retryDelay:   30 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		repo:         repo,
		handlers:     make(map[string]Handler),
		pullInterval: options.pullInterval,
		lockTimeout:  options.lockTimeout,
		retryDelay:   options.retryDelay,
		logger:       options.logger,
	}, nil
}

// RegisterHandlers registers task handlers, keyed by handler name.
func (w *Worker) RegisterHandlers(handlers ...Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Name()] = h
		}
	}
}

// Start runs the polling loop until the context is canceled. Each tick drains
// all currently due tasks before sleeping again.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrWorkerAlreadyStarted
	}
	if len(w.handlers) == 0 {
		w.mu.Unlock()
		return ErrNoHandlers
	}
	w.started = true
	w.mu.Unlock()

	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	w.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "worker shutting down", logger.Component("queue"))
			return ctx.Err()
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and processes tasks until the repository reports none due.
func (w *Worker) drain(ctx context.Context) {
	for {
		task, err := w.repo.ClaimTask(ctx, w.lockTimeout)
		if err != nil {
			if !errors.Is(err, ErrNoTasksAvailable) {
				w.logger.ErrorContext(ctx, "failed to claim task",
					logger.Component("queue"),
					logger.Error(err),
				)
			}
			return
		}

		w.process(ctx, task)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (w *Worker) process(ctx context.Context, task *Task) {
	w.mu.RLock()
	handler, ok := w.handlers[task.TaskName]
	w.mu.RUnlock()

	if !ok {
		w.fail(ctx, task, fmt.Sprintf("%v: %s", ErrHandlerNotFound, task.TaskName))
		return
	}

	if err := handler.Handle(ctx, task.Payload); err != nil {
		w.logger.ErrorContext(ctx, "task handler failed",
			logger.Component("queue"),
			logger.TaskName(task.TaskName),
			logger.RetryCount(int(task.RetryCount)),
			logger.Error(err),
		)
		w.fail(ctx, task, err.Error())
		return
	}

	if err := w.repo.CompleteTask(ctx, task.ID); err != nil {
		w.logger.ErrorContext(ctx, "failed to mark task completed",
			logger.Component("queue"),
			logger.TaskName(task.TaskName),
			logger.Error(err),
		)
	}
}

func (w *Worker) fail(ctx context.Context, task *Task, msg string) {
	if err := w.repo.FailTask(ctx, task.ID, msg, time.Now().Add(w.retryDelay)); err != nil {
		w.logger.ErrorContext(ctx, "failed to record task failure",
			logger.Component("queue"),
			logger.TaskName(task.TaskName),
			logger.Error(err),
		)
	}
}
