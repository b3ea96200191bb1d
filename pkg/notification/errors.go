package notification

import "errors"

var (
	// ErrNotificationNotFound is returned when a notification does not exist.
	// Storage implementations must normalize their backend-specific not-found
	// errors into this sentinel.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrMissingTarget is returned when a notification has no target.
	ErrMissingTarget = errors.New("notification target is required")

	// ErrMissingNotifiable is returned when a notification has no subject.
	ErrMissingNotifiable = errors.New("notification notifiable is required")

	// ErrMissingKey is returned when a notification has no key.
	ErrMissingKey = errors.New("notification key is required")

	// ErrNotNotifiable is returned when a loaded entity does not implement
	// the Notifiable contract.
	ErrNotNotifiable = errors.New("entity does not implement Notifiable")
)
