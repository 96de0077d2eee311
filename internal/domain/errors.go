package domain

import "errors"

// Domain errors represent error conditions in the holdfast domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyLaunched is returned when Launch() is called on a supervisor
	// that has already been launched.
	ErrAlreadyLaunched = errors.New("holdfast: already launched")

	// ErrNotLaunched is returned when an operation requires a launched supervisor.
	ErrNotLaunched = errors.New("holdfast: not launched")

	// ErrShutdownTimeout is returned when graceful shutdown exhausts its budget.
	ErrShutdownTimeout = errors.New("holdfast: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("holdfast: invalid configuration")

	// ErrInvalidTransition is returned on a disallowed supervisor state change.
	ErrInvalidTransition = errors.New("holdfast: invalid state transition")

	// ErrLockBackendUnknown is returned when no lock backend is registered
	// under the configured name.
	ErrLockBackendUnknown = errors.New("holdfast: unknown lock backend")

	// ErrChannelDisabled is returned when the shutdown channel is configured
	// with a negative port.
	ErrChannelDisabled = errors.New("holdfast: shutdown channel disabled")
)
