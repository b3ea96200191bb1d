package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueuerRepository defines the interface for task creation.
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// Enqueuer handles task enqueueing.
type Enqueuer struct {
	repo EnqueuerRepository
}

// NewEnqueuer creates a new Enqueuer.
func NewEnqueuer(repo EnqueuerRepository) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	return &Enqueuer{repo: repo}, nil
}

// Enqueue adds a new task to the queue. The payload is JSON-marshaled and the
// task name defaults to the payload's qualified struct name, which is also
// what NewTaskHandler derives on the worker side.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) error {
	if payload == nil {
		return ErrPayloadNil
	}

	options := &enqueueOptions{
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(options)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload of type %T: %w", payload, err)
	}

	taskName := options.taskName
	if taskName == "" {
		taskName = qualifiedStructName(payload)
	}

	scheduledAt := time.Now()
	if options.scheduledAt != nil {
		scheduledAt = *options.scheduledAt
	} else if options.delay > 0 {
		scheduledAt = scheduledAt.Add(options.delay)
	}

	task := &Task{
		ID:          uuid.New(),
		TaskName:    taskName,
		Payload:     payloadBytes,
		Status:      TaskStatusPending,
		RetryCount:  0,
		MaxRetries:  options.maxRetries,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now(),
	}

	if err := e.repo.CreateTask(ctx, task); err != nil {
		return fmt.Errorf("failed to create task %q: %w", task.TaskName, err)
	}
	return nil
}

// EnqueueOption is a functional option for the Enqueue method.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	maxRetries  int8
	delay       time.Duration
	scheduledAt *time.Time
	taskName    string
}

// WithDelay sets a delay before the task can be processed.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if delay > 0 {
			o.delay = delay
		}
	}
}

// WithScheduledAt sets a specific time for the task to be processed.
func WithScheduledAt(scheduledAt time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.scheduledAt = &scheduledAt
	}
}

// WithTaskName sets a custom task name.
func WithTaskName(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		if name != "" {
			o.taskName = name
		}
	}
}

// WithMaxRetries sets the maximum number of retries (0-10).
// Capped at 10 to prevent infinite retry loops on persistent failures.
func WithMaxRetries(maxRetries int8) EnqueueOption {
	return func(o *enqueueOptions) {
		if maxRetries >= 0 && maxRetries <= 10 {
			o.maxRetries = maxRetries
		}
	}
}
