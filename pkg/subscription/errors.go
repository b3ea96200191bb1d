package subscription

import "errors"

var (
	// ErrSubscriptionNotFound is returned when no record exists for the
	// (target, key) pair. Storage backends normalize their own not-found
	// signals into this sentinel.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrMissingTarget is returned when a subscription operation is attempted
	// without a target reference.
	ErrMissingTarget = errors.New("subscription target is required")

	// ErrMissingKey is returned when a subscription operation is attempted
	// without a notification key.
	ErrMissingKey = errors.New("subscription key is required")
)
