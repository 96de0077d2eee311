package app

import (
	"context"
	"time"

	"github.com/holdfast-io/holdfast/internal/ports"
)

// ElectionConfig carries the tunables of the election loop.
type ElectionConfig struct {
	// Delay is the polling interval for both acquisition attempts and
	// liveness checks while the lock is held.
	Delay time.Duration

	// StandbyLevel is the readiness level of an instance waiting for the lock.
	StandbyLevel int

	// ActiveLevel is the readiness level of the instance holding the lock.
	ActiveLevel int
}

// Election polls a lock and drives the container's readiness between
// standby and active. It never returns except on context cancellation,
// and it never panics across the goroutine boundary: backend errors are
// logged and treated as "lock not held".
//
// Polling rather than event notification is deliberate: lock backends
// may be arbitrary remote mutual-exclusion services that cannot push
// invalidation events, so the loop trades up to one Delay of latency
// for backend-agnosticism.
type Election struct {
	cfg       ElectionConfig
	lock      ports.Lock
	container ports.Container
	readiness *Readiness
	logger    ports.Logger

	// onHeld fires each time the lock transitions to held, after the
	// readiness raise succeeded. The supervisor uses it to start the
	// shutdown channel (guarded by its own once) and mark itself Active.
	onHeld func()

	// onLost fires after a demotion back to standby.
	onLost func()
}

// NewElection creates an election loop over the given lock and container.
// onHeld and onLost may be nil.
func NewElection(cfg ElectionConfig, lock ports.Lock, container ports.Container, readiness *Readiness, logger ports.Logger, onHeld, onLost func()) *Election {
	return &Election{
		cfg:       cfg,
		lock:      lock,
		container: container,
		readiness: readiness,
		logger:    logger,
		onHeld:    onHeld,
		onLost:    onLost,
	}
}

// Run drives the election until ctx is cancelled. Shutdown latency is
// bounded by one Delay interval; an in-flight Acquire or IsAlive call is
// never interrupted.
func (e *Election) Run(ctx context.Context) {
	lockLogged := false

	for ctx.Err() == nil {
		held, err := e.lock.Acquire()
		if err != nil {
			e.logger.Error("lock acquire failed", ports.Err(err))
			held = false
		}

		switch {
		case held:
			if lockLogged {
				e.logger.Info("lock acquired")
			}
			if err := e.readiness.Raise(e.cfg.ActiveLevel); err != nil {
				// Could not become active; retry on the next poll.
				break
			}
			if e.onHeld != nil {
				e.onHeld()
			}
			e.watchHeld(ctx)
			if e.container.State() == ports.ContainerActive && ctx.Err() == nil {
				e.logger.Info("lost the lock, demoting this instance")
				if err := e.readiness.Lower(e.cfg.StandbyLevel); err == nil && e.onLost != nil {
					e.onLost()
				}
				lockLogged = true
			}
		case !lockLogged:
			e.logger.Info("waiting for the lock",
				ports.Duration("delay", e.cfg.Delay))
			lockLogged = true
		}

		sleep(ctx, e.cfg.Delay)
	}
}

// watchHeld blocks while the lock stays alive, checking every Delay.
// Returns when the lock is lost or ctx is cancelled.
func (e *Election) watchHeld(ctx context.Context) {
	for {
		if !sleep(ctx, e.cfg.Delay) {
			return
		}
		alive, err := e.lock.IsAlive()
		if err != nil {
			e.logger.Error("lock liveness check failed", ports.Err(err))
			alive = false
		}
		if !alive {
			return
		}
	}
}

// sleep suspends for d or until ctx is cancelled. Reports whether the
// full duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
