package cascade

import (
	"context"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// FireTask is the serialized payload of one scheduled cascade step. The
// whole config travels with the task so a fire can schedule its successor
// without any shared state beyond the notification itself.
type FireTask struct {
	NotificationID string `json:"notification_id"`
	Config         Config `json:"config"`
	StepIndex      int    `json:"step_index"`
}

// TaskScheduler is the delayed-execution contract cascades run on. Delivery
// is assumed at-least-once; FireStep is idempotent against duplicates.
type TaskScheduler interface {
	Schedule(ctx context.Context, delay time.Duration, task FireTask) error
}

// QueueScheduler schedules fire tasks on the task queue.
type QueueScheduler struct {
	enqueuer *queue.Enqueuer
}

// NewQueueScheduler adapts a queue enqueuer to the TaskScheduler contract.
func NewQueueScheduler(enqueuer *queue.Enqueuer) *QueueScheduler {
	return &QueueScheduler{enqueuer: enqueuer}
}

func (s *QueueScheduler) Schedule(ctx context.Context, delay time.Duration, task FireTask) error {
	return s.enqueuer.Enqueue(ctx, task, queue.WithDelay(delay))
}

// NewFireTaskHandler builds the queue handler consuming FireTask. The
// result value is dropped here; per-step outcomes are logged by the
// cascader, and only a propagating channel error fails the task.
func NewFireTaskHandler(cascader *Cascader) queue.Handler {
	return queue.NewTaskHandler(func(ctx context.Context, task FireTask) error {
		_, err := cascader.FireStep(ctx, task)
		return err
	})
}
