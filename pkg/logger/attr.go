package logger

import (
	"log/slog"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// NotificationID records the notification identifier under the key
// "notification_id".
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// Target records a recipient reference under the key "target".
// If target is nil, it returns an empty Attr.
func Target(target any) slog.Attr {
	if target == nil {
		return slog.Attr{}
	}
	return slog.Any("target", target)
}

// Notifiable records the subject entity reference under the key "notifiable".
// If notifiable is nil, it returns an empty Attr.
func Notifiable(notifiable any) slog.Attr {
	if notifiable == nil {
		return slog.Attr{}
	}
	return slog.Any("notifiable", notifiable)
}

// Key records the notification key under the key "key".
func Key(key string) slog.Attr {
	return slog.String("key", key)
}

// Channel records the delivery channel name under the key "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// Step records a cascade step index under the key "step".
func Step(i int) slog.Attr {
	return slog.Int("step", i)
}

// TaskName records the queue task name under the key "task_name".
func TaskName(name string) slog.Attr {
	return slog.String("task_name", name)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// RetryCount records the retry count under the key "retry_count".
func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}
