package app

import (
	"fmt"
	"sync"

	"github.com/holdfast-io/holdfast/internal/ports"
)

// Readiness owns the container's readiness level. It is the single place
// that mutates it: the election loop raises while the lock is held and
// lowers after the lock is confirmed lost, never both concurrently.
type Readiness struct {
	mu        sync.Mutex
	container ports.Container
	level     int
	logger    ports.Logger
}

// NewReadiness creates a readiness controller for the given container.
func NewReadiness(container ports.Container, logger ports.Logger) *Readiness {
	return &Readiness{container: container, logger: logger}
}

// Raise moves the container's readiness up to level. Exactly one call
// into the container per invocation; errors leave the recorded level
// unchanged and propagate to the caller.
func (r *Readiness) Raise(level int) error {
	return r.set(level, "raise")
}

// Lower moves the container's readiness down to level. Same contract as Raise.
func (r *Readiness) Lower(level int) error {
	return r.set(level, "lower")
}

// Level returns the last readiness level successfully applied.
func (r *Readiness) Level() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

func (r *Readiness) set(level int, op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.container.SetReadinessLevel(level); err != nil {
		r.logger.Error("readiness transition failed",
			ports.String("op", op),
			ports.Int("level", level),
			ports.Err(err),
		)
		return fmt.Errorf("%s readiness to %d: %w", op, level, err)
	}

	r.logger.Info("readiness level changed",
		ports.Int("from", r.level),
		ports.Int("to", level),
	)
	r.level = level
	return nil
}
