package ref

import "errors"

var (
	// ErrEmptyRef is returned when a zero reference is passed to an operation
	// that requires a concrete entity.
	ErrEmptyRef = errors.New("empty entity reference")

	// ErrKindNotRegistered is returned when no loader is registered for the
	// reference's kind.
	ErrKindNotRegistered = errors.New("entity kind not registered")

	// ErrEntityNotFound should be wrapped by loaders when the referenced
	// entity does not exist.
	ErrEntityNotFound = errors.New("entity not found")
)
