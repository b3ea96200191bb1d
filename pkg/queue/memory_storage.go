package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements the queue repository interfaces for testing and
// local development.
type MemoryStorage struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
}

// NewMemoryStorage creates a new in-memory queue storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tasks: make(map[uuid.UUID]*Task),
	}
}

// CreateTask implements EnqueuerRepository.
func (ms *MemoryStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrPayloadNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	taskCopy := *task
	ms.tasks[task.ID] = &taskCopy
	return nil
}

// ClaimTask implements WorkerRepository. The oldest due pending task wins;
// expired locks are treated as available so crashed workers do not strand
// tasks.
func (ms *MemoryStorage) ClaimTask(ctx context.Context, lockDuration time.Duration) (*Task, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()

	var candidate *Task
	for _, task := range ms.tasks {
		if task.Status != TaskStatusPending && task.Status != TaskStatusProcessing {
			continue
		}
		if task.ScheduledAt.After(now) {
			continue
		}
		if task.LockedUntil != nil && task.LockedUntil.After(now) {
			continue
		}
		if candidate == nil || task.ScheduledAt.Before(candidate.ScheduledAt) {
			candidate = task
		}
	}
	if candidate == nil {
		return nil, ErrNoTasksAvailable
	}

	lockedUntil := now.Add(lockDuration)
	candidate.Status = TaskStatusProcessing
	candidate.LockedUntil = &lockedUntil

	taskCopy := *candidate
	return &taskCopy, nil
}

// CompleteTask implements WorkerRepository.
func (ms *MemoryStorage) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, ok := ms.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}

	now := time.Now()
	task.Status = TaskStatusCompleted
	task.ProcessedAt = &now
	task.LockedUntil = nil
	return nil
}

// FailTask implements WorkerRepository.
func (ms *MemoryStorage) FailTask(ctx context.Context, taskID uuid.UUID, errorMsg string, retryAt time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	task, ok := ms.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}

	task.RetryCount++
	task.Error = &errorMsg
	task.LockedUntil = nil

	if task.RetryCount > task.MaxRetries {
		now := time.Now()
		task.Status = TaskStatusFailed
		task.ProcessedAt = &now
		return nil
	}

	task.Status = TaskStatusPending
	task.ScheduledAt = retryAt
	return nil
}

// Tasks returns a snapshot of all stored tasks, ordered by creation time.
// Intended for tests and diagnostics.
func (ms *MemoryStorage) Tasks() []Task {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]Task, 0, len(ms.tasks))
	for _, task := range ms.tasks {
		out = append(out, *task)
	}
	for i := 0; i < len(out)-1; i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
