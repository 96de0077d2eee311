package ports

import "time"

// ContainerState describes the operating state of the managed container.
type ContainerState int

const (
	ContainerStopped ContainerState = iota
	ContainerStarting
	ContainerActive
	ContainerStopping
)

// String returns a human-readable representation of the state.
func (s ContainerState) String() string {
	switch s {
	case ContainerStopped:
		return "Stopped"
	case ContainerStarting:
		return "Starting"
	case ContainerActive:
		return "Active"
	case ContainerStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// StopOutcome is the result of waiting for the container to stop.
type StopOutcome int

const (
	// StopNormal means the container reached a stopped state.
	StopNormal StopOutcome = iota
	// StopTimedOut means the wait budget elapsed before the container stopped.
	StopTimedOut
)

// Container is the managed-component runtime supervised by holdfast.
// The supervisor owns its lifecycle but not its internals: artifact
// resolution, bootstrap and module wiring are the container's concern.
type Container interface {
	// Init prepares the container for starting. Called exactly once,
	// before Start. Errors are fatal to the launch attempt.
	Init() error

	// Start brings the container up at a minimal internal readiness.
	Start() error

	// Stop requests the container to stop. It may return before the
	// container has fully stopped; use WaitForStop to observe completion.
	Stop() error

	// State reports the current operating state.
	State() ContainerState

	// WaitForStop blocks until the container stops or the timeout elapses.
	// A timeout <= 0 waits indefinitely.
	WaitForStop(timeout time.Duration) (StopOutcome, error)

	// SetReadinessLevel moves the container's readiness gate. Higher levels
	// enable more of the container's functionality.
	SetReadinessLevel(level int) error

	// RestartRequested reports whether the container asked for a full
	// process restart. Observed by the process boundary after a stop.
	RestartRequested() bool
}
