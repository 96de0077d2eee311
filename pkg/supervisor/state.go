package supervisor

import "github.com/holdfast-io/holdfast/internal/app"

// State represents the lifecycle state of a Supervisor.
type State int

const (
	// StateStarting means the container is being initialized.
	StateStarting State = iota
	// StateElecting means the instance is contending for the lock (standby).
	StateElecting
	// StateActive means the instance holds the lock and runs at full readiness.
	StateActive
	// StateStopping means a graceful shutdown is in progress.
	StateStopping
	// StateStopped means the container has stopped.
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

func convertState(s app.State) State {
	switch s {
	case app.StateStarting:
		return StateStarting
	case app.StateElecting:
		return StateElecting
	case app.StateActive:
		return StateActive
	case app.StateStopping:
		return StateStopping
	case app.StateStopped:
		return StateStopped
	default:
		return StateStopped
	}
}
