package queue

import "errors"

// Common errors
var (
	// ErrRepositoryNil is returned when a nil repository is provided.
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload.
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrNoTasksAvailable is returned by ClaimTask when nothing is due.
	ErrNoTasksAvailable = errors.New("no tasks available")

	// ErrTaskNotFound is returned when a task does not exist in storage.
	ErrTaskNotFound = errors.New("task not found")

	// ErrHandlerNotFound is returned when no handler is registered for a task.
	ErrHandlerNotFound = errors.New("no handler registered for task type")

	// ErrNoHandlers is returned when a worker is started without handlers.
	ErrNoHandlers = errors.New("no task handlers registered")

	// ErrWorkerAlreadyStarted is returned when Start is called twice.
	ErrWorkerAlreadyStarted = errors.New("worker already started")
)
