package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holdfast-io/holdfast/internal/app"
	"github.com/holdfast-io/holdfast/internal/domain"
	"github.com/holdfast-io/holdfast/internal/lock"
	"github.com/holdfast-io/holdfast/internal/ports"
	"github.com/holdfast-io/holdfast/internal/shutdown"
)

// Supervisor is the composition root of the holdfast runtime: it starts
// the container, runs the lock election on a background goroutine,
// exposes the shutdown channel once the lock is held, and performs the
// bounded graceful stop. Use New() to create an instance; a Supervisor
// is single-use: the process boundary constructs a fresh one for each
// restart iteration.
type Supervisor struct {
	cfg       Config
	opts      options
	container ports.Container
	lock      ports.Lock
	lifecycle *app.Lifecycle
	readiness *app.Readiness
	channel   *shutdown.Channel
	logger    ports.Logger

	mu           sync.Mutex
	launched     bool
	cancel       context.CancelFunc
	electionDone chan struct{}

	channelOnce sync.Once
	releaseOnce sync.Once
}

// New creates a Supervisor for the given container.
// Returns an error if the configuration is invalid or the configured
// lock backend cannot be constructed.
func New(cfg Config, container ports.Container, opts ...Option) (*Supervisor, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if container == nil {
		return nil, fmt.Errorf("%w: container is required", domain.ErrInvalidConfig)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	var emitter eventEmitterWrapper
	if o.eventHandler != nil {
		emitter = eventEmitterWrapper{handler: o.eventHandler}
	}

	lk := o.lock
	if lk == nil && cfg.UseLock {
		var err error
		lk, err = lock.New(cfg.LockBackend, lock.Config{Path: cfg.LockFile}, logger)
		if err != nil {
			return nil, err
		}
	}

	s := &Supervisor{
		cfg:       cfg,
		opts:      o,
		container: container,
		lock:      lk,
		lifecycle: app.NewLifecycle(logger, &emitter),
		readiness: app.NewReadiness(container, logger),
		logger:    logger,
	}

	s.channel = shutdown.New(shutdown.Config{
		Host:     cfg.ShutdownHost,
		Port:     cfg.ShutdownPort,
		PortFile: cfg.ShutdownPortFile,
		PIDFile:  cfg.ShutdownPIDFile,
		Command:  cfg.ShutdownCommand,
	}, s.stopContainer, logger)

	return s, nil
}

// Launch initializes and starts the container, then spawns the election
// loop and returns. It does not block waiting for the lock: an instance
// that cannot acquire it simply stays standby at the lock start level.
//
// On a startup failure the supervisor transitions to Stopping and the
// error is surfaced to the process boundary, which performs best-effort
// teardown via Destroy.
func (s *Supervisor) Launch(ctx context.Context) error {
	s.mu.Lock()
	if s.launched {
		s.mu.Unlock()
		return domain.ErrAlreadyLaunched
	}
	s.launched = true
	s.mu.Unlock()

	if err := s.container.Init(); err != nil {
		_ = s.lifecycle.TransitionTo(app.StateStopping, "container init failed")
		return fmt.Errorf("initialize container: %w", err)
	}
	if err := s.container.Start(); err != nil {
		_ = s.lifecycle.TransitionTo(app.StateStopping, "container start failed")
		return fmt.Errorf("start container: %w", err)
	}

	// Hold the container at standby until the election says otherwise.
	if err := s.readiness.Raise(s.cfg.LockStartLevel); err != nil {
		s.logger.Warn("could not set standby readiness", ports.Err(err))
	}

	if err := s.lifecycle.TransitionTo(app.StateElecting, "container started"); err != nil {
		return err
	}

	if !s.cfg.UseLock {
		// No election: this instance is the active one by definition,
		// so promoting and exposing the shutdown channel is immediate.
		if err := s.readiness.Raise(s.cfg.DefaultStartLevel); err != nil {
			return fmt.Errorf("promote container: %w", err)
		}
		s.startChannelOnce()
		return s.lifecycle.TransitionTo(app.StateActive, "lock disabled")
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.electionDone = done
	s.mu.Unlock()

	election := app.NewElection(app.ElectionConfig{
		Delay:        s.cfg.LockDelay,
		StandbyLevel: s.cfg.LockStartLevel,
		ActiveLevel:  s.cfg.DefaultStartLevel,
	}, s.lock, s.container, s.readiness, s.logger, s.onLockHeld, s.onLockLost)

	go func() {
		defer close(done)
		defer func() {
			// An uncaught failure here must never silently kill the
			// process without going through the supervised shutdown path.
			if r := recover(); r != nil {
				s.logger.Error("election loop panicked",
					ports.Any("panic", r))
			}
		}()
		election.Run(runCtx)
	}()

	return nil
}

// AwaitStop blocks until the container stops on its own, through the
// shutdown channel, or through an external stop signal.
func (s *Supervisor) AwaitStop() error {
	_, err := s.container.WaitForStop(0)
	return err
}

// RequestStop asks the container to stop without blocking. Used by the
// process boundary on receipt of a termination signal.
func (s *Supervisor) RequestStop() {
	s.stopContainer()
}

// Destroy performs the bounded graceful shutdown. It reports whether the
// container stopped within the budget; false means the budget elapsed
// and the process boundary decides between force-exit and restart.
// The lock is released exactly once, on every exit path.
func (s *Supervisor) Destroy() (stopped bool, err error) {
	defer s.releaseOnce.Do(func() {
		if s.lock != nil {
			s.lock.Release()
		}
	})

	// Signal exit so the election loop never re-raises readiness.
	_ = s.lifecycle.TransitionTo(app.StateStopping, "destroy requested")
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	// Stop the container in case it's still operating. Asynchronous so
	// the polling loop below owns the budget.
	state := s.container.State()
	if state == ports.ContainerActive || state == ports.ContainerStarting {
		go s.stopContainer()
	}

	step := s.cfg.ShutdownStep
	remaining := s.cfg.ShutdownTimeout
	unbounded := s.cfg.ShutdownTimeout <= 0

	for unbounded || remaining > 0 {
		if unbounded {
			remaining = -1
		} else {
			remaining -= step
		}
		if s.opts.callback != nil {
			s.opts.callback(remaining)
		}
		outcome, werr := s.container.WaitForStop(step)
		if werr != nil {
			return false, fmt.Errorf("wait for container stop: %w", werr)
		}
		if outcome == ports.StopNormal {
			_ = s.lifecycle.TransitionTo(app.StateStopped, "container stopped")
			return true, nil
		}
	}

	s.logger.Warn("graceful shutdown budget exhausted",
		ports.Duration("timeout", s.cfg.ShutdownTimeout))
	return false, nil
}

// Status returns the current supervisor state.
// Safe to call concurrently from any goroutine.
func (s *Supervisor) Status() State {
	return convertState(s.lifecycle.State())
}

// ShutdownPort returns the bound control channel port, or -1 if the
// channel is not listening. Standby instances report -1 until promoted.
func (s *Supervisor) ShutdownPort() int {
	return s.channel.Port()
}

// onLockHeld runs each time the election promotes this instance.
// The channel start is guarded so WAITING->HELD->WAITING cycles start
// it at most once per supervisor instance.
func (s *Supervisor) onLockHeld() {
	s.startChannelOnce()
	_ = s.lifecycle.TransitionTo(app.StateActive, "lock held")
}

// onLockLost runs after the election demoted this instance back to standby.
func (s *Supervisor) onLockLost() {
	_ = s.lifecycle.TransitionTo(app.StateElecting, "lock lost")
}

func (s *Supervisor) startChannelOnce() {
	s.channelOnce.Do(func() {
		err := s.channel.Start()
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrChannelDisabled):
			s.logger.Info("shutdown channel disabled by configuration")
		default:
			// Not fatal: the process stays reachable through the
			// process-boundary stop path.
			s.logger.Error("shutdown channel setup failed", ports.Err(err))
		}
	})
}

// stopContainer invokes the container stop path, logging failures.
// Runs on the shutdown channel's per-request goroutine or the signal path.
func (s *Supervisor) stopContainer() {
	if err := s.container.Stop(); err != nil {
		s.logger.Error("container stop failed", ports.Err(err))
	}
}

// waitElectionExit is a test hook: it blocks until the election loop has
// exited, bounded by the given timeout.
func (s *Supervisor) waitElectionExit(timeout time.Duration) bool {
	s.mu.Lock()
	done := s.electionDone
	s.mu.Unlock()
	if done == nil {
		return true
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}
