// Package queue provides a minimal delayed task scheduler with at-least-once
// delivery semantics.
//
// It backs the asynchronous parts of notification delivery: emails enqueued
// with send-later semantics and the delayed steps of delivery cascades. Tasks
// carry a JSON payload matched to a typed handler by name:
//
//	storage := queue.NewMemoryStorage()
//	enqueuer, _ := queue.NewEnqueuer(storage)
//
//	type WelcomeEmail struct{ UserID string }
//	_ = enqueuer.Enqueue(ctx, WelcomeEmail{UserID: "42"}, queue.WithDelay(10*time.Minute))
//
//	worker, _ := queue.NewWorker(storage)
//	worker.RegisterHandlers(queue.NewTaskHandler(func(ctx context.Context, t WelcomeEmail) error {
//	    return sendWelcome(ctx, t.UserID)
//	}))
//	go worker.Start(ctx)
//
// Delivery is at-least-once: a worker that dies mid-task leaves the lock to
// expire and the task is claimed again. Handlers must therefore be idempotent.
package queue
