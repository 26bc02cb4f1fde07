package pool

import "errors"

var (
	// ErrInvalidConfig is returned when pool configuration violates the
	// sizing or timing invariants.
	ErrInvalidConfig = errors.New("pool: invalid configuration")

	// ErrExhausted is returned when Borrow times out waiting for capacity.
	ErrExhausted = errors.New("pool: exhausted")

	// ErrClosed is returned when an operation is attempted on a closed pool.
	ErrClosed = errors.New("pool: closed")

	// ErrDialFailed is returned when the connection factory fails.
	ErrDialFailed = errors.New("pool: failed to create connection")
)
