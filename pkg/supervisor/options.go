package supervisor

import (
	"time"

	"github.com/holdfast-io/holdfast/internal/ports"
	"github.com/holdfast-io/holdfast/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// Lock is the mutual-exclusion port; see internal/ports for the contract.
type Lock = ports.Lock

// Container is the managed-component runtime port.
type Container = ports.Container

// ShutdownCallback is notified on each graceful-shutdown polling step
// with the remaining budget, so an embedding host can extend its own
// watchdog. A negative value means the budget is unbounded.
type ShutdownCallback func(remaining time.Duration)

// Option configures optional behavior of a Supervisor.
type Option func(*options)

// options holds the optional configuration for a Supervisor instance.
type options struct {
	logger       ports.Logger
	lock         ports.Lock
	eventHandler EventHandler
	callback     ShutdownCallback
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLock injects a custom lock implementation, bypassing the
// configured backend registry. Useful for tests and for embedding hosts
// with their own mutual-exclusion service.
func WithLock(lock Lock) Option {
	return func(o *options) {
		o.lock = lock
	}
}

// WithEventHandler sets a handler for supervisor state-change events.
// Events are called synchronously; if not provided, none are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithShutdownCallback sets the graceful-shutdown progress callback.
func WithShutdownCallback(callback ShutdownCallback) Option {
	return func(o *options) {
		o.callback = callback
	}
}
