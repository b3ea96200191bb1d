package callable

import "errors"

var (
	// ErrValueNotSet is returned when resolving a zero Value.
	ErrValueNotSet = errors.New("callable value not set")

	// ErrNoReceiver is returned when a method reference is resolved without a
	// receiver to dispatch against.
	ErrNoReceiver = errors.New("no receiver for method reference")

	// ErrMethodNotFound should be returned by receivers for unknown method
	// names.
	ErrMethodNotFound = errors.New("method not found on receiver")

	// ErrTypeMismatch is returned by ResolveAs when the resolved value has an
	// unexpected type.
	ErrTypeMismatch = errors.New("resolved value has unexpected type")
)
