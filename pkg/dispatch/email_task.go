package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// EmailDeliveryTask is the queue payload for a deferred email send. Only the
// notification id is serialized; the record is reloaded at delivery time so
// the email reflects the notification's state then, not at enqueue time.
type EmailDeliveryTask struct {
	NotificationID string `json:"notification_id"`
}

// NewEmailDeliveryHandler builds the queue handler consuming
// EmailDeliveryTask. A notification deleted between enqueue and delivery is
// a logged no-op, not a failure: retention may legitimately remove records
// before the queue drains.
func NewEmailDeliveryHandler(storage notification.Storage, deliverer EmailDeliverer, log *slog.Logger) queue.Handler {
	if log == nil {
		log = slog.Default()
	}

	return queue.NewTaskHandler(func(ctx context.Context, task EmailDeliveryTask) error {
		n, err := storage.Get(ctx, task.NotificationID)
		if err != nil {
			if errors.Is(err, notification.ErrNotificationNotFound) {
				log.InfoContext(ctx, "notification gone before email delivery, skipping",
					logger.NotificationID(task.NotificationID),
				)
				return nil
			}
			return err
		}

		return deliverer.Send(ctx, *n)
	})
}
