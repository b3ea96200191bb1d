// Package logger provides a thin factory around log/slog plus attribute
// constructors shared by the notification packages.
//
// The helper constructors in attr.go keep attribute naming consistent across
// the codebase: notification_id, target, key, channel, step, and so on. The
// New factory builds a *slog.Logger configured via functional options:
//
//	log := logger.New(
//	    logger.WithDevelopment("notifications"),
//	)
//	logger.SetAsDefault(log)
//
//	log.Info("stored notification",
//	    logger.NotificationID(n.ID),
//	    logger.Key(n.Key),
//	)
package logger
