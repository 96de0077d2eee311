package app

import (
	"sync"

	"github.com/holdfast-io/holdfast/internal/domain"
	"github.com/holdfast-io/holdfast/internal/ports"
)

// State represents the lifecycle state of the supervisor.
type State int

const (
	StateStarting State = iota
	StateElecting
	StateActive
	StateStopping
	StateStopped
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateElecting:
		return "Electing"
	case StateActive:
		return "Active"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// EventEmitter is called when the supervisor state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle manages the state machine for the supervisor.
//
// Valid transitions:
//
//	Starting -> Electing  (container started, election loop spawned)
//	Starting -> Stopping  (startup failure, best-effort teardown)
//	Electing -> Active    (lock held, readiness raised)
//	Active   -> Electing  (lock lost, fail-back to standby)
//	Electing -> Stopping  (shutdown requested)
//	Active   -> Stopping  (shutdown requested)
//	Stopping -> Stopped   (container reported stopped)
type Lifecycle struct {
	mu      sync.RWMutex
	state   State
	logger  ports.Logger
	emitter EventEmitter
}

// NewLifecycle creates a new lifecycle manager in StateStarting.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:   StateStarting,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo attempts to transition to a new state.
// Returns ErrInvalidTransition if the transition is not valid.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	if !validTransition(oldState, newState) {
		l.mu.Unlock()
		return domain.ErrInvalidTransition
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.emitter != nil {
		l.emitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)

	return nil
}

func validTransition(from, to State) bool {
	switch from {
	case StateStarting:
		return to == StateElecting || to == StateStopping
	case StateElecting:
		return to == StateActive || to == StateStopping
	case StateActive:
		return to == StateElecting || to == StateStopping
	case StateStopping:
		return to == StateStopped
	default:
		return false
	}
}

// Exiting reports whether the supervisor has begun shutting down.
func (l *Lifecycle) Exiting() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateStopping || l.state == StateStopped
}
