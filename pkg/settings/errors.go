package settings

import "errors"

var (
	// ErrInvalidValue is returned when a present setting cannot be coerced
	// to the requested type.
	ErrInvalidValue = errors.New("settings: invalid value")

	// ErrUnreadableSource is returned when a file-backed source cannot be
	// read or parsed.
	ErrUnreadableSource = errors.New("settings: failed to read source")
)
