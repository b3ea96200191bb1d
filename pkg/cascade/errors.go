package cascade

import "errors"

var (
	// ErrInvalidConfig wraps every cascade config validation failure. The
	// message carries all collected violations.
	ErrInvalidConfig = errors.New("invalid cascade config")

	// ErrStepOutOfRange is returned when a fire task references a step index
	// outside its own config, which indicates a corrupted task payload.
	ErrStepOutOfRange = errors.New("cascade step index out of range")
)
