// Package proc adapts a child OS process to the ports.Container contract.
//
// The child is the managed component: holdfast starts it, signals it to
// stop, and publishes the readiness level to a file in the data
// directory so the child (or external tooling) can gate its own
// functionality on it. The file's path is handed to the child through
// the HOLDFAST_READINESS_FILE environment variable.
package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/holdfast-io/holdfast/internal/ports"
)

// ReadinessFileName is the name of the readiness level file inside the
// data directory.
const ReadinessFileName = "readiness"

// DefaultRestartExitCode is the child exit code interpreted as a request
// for a full process restart when none is configured.
const DefaultRestartExitCode = 10

// Config describes the child process to supervise.
type Config struct {
	// Command is the child argv. Required.
	Command []string

	// Dir is the child working directory. Defaults to the parent's.
	Dir string

	// Env is extra environment for the child, appended to the parent's.
	Env []string

	// DataDir holds the readiness file. Required.
	DataDir string

	// RestartExitCode is the child exit code meaning "restart me".
	// Defaults to DefaultRestartExitCode.
	RestartExitCode int
}

// Container runs and observes a single child process.
type Container struct {
	cfg    Config
	logger ports.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	state   ports.ContainerState
	stopped chan struct{}
	restart bool
}

// New creates a container for the given child configuration.
func New(cfg Config, logger ports.Logger) *Container {
	if cfg.RestartExitCode == 0 {
		cfg.RestartExitCode = DefaultRestartExitCode
	}
	return &Container{
		cfg:    cfg,
		logger: logger,
		state:  ports.ContainerStopped,
	}
}

// Init validates the configuration and prepares the data directory.
func (c *Container) Init() error {
	if len(c.cfg.Command) == 0 {
		return errors.New("proc: command is required")
	}
	if c.cfg.DataDir == "" {
		return errors.New("proc: data directory is required")
	}
	if _, err := exec.LookPath(c.cfg.Command[0]); err != nil {
		return fmt.Errorf("proc: resolve command: %w", err)
	}
	if err := os.MkdirAll(c.cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("proc: create data dir: %w", err)
	}
	return nil
}

// Start launches the child and begins observing its exit.
func (c *Container) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ports.ContainerStopped {
		return fmt.Errorf("proc: start from state %s", c.state)
	}

	cmd := exec.Command(c.cfg.Command[0], c.cfg.Command[1:]...)
	cmd.Dir = c.cfg.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), c.cfg.Env...)
	cmd.Env = append(cmd.Env, "HOLDFAST_READINESS_FILE="+c.readinessPath())

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("proc: start child: %w", err)
	}

	c.cmd = cmd
	c.state = ports.ContainerActive
	c.restart = false
	c.stopped = make(chan struct{})

	c.logger.Info("child process started",
		ports.String("command", c.cfg.Command[0]),
		ports.Int("pid", cmd.Process.Pid))

	go c.monitor(cmd, c.stopped)
	return nil
}

// monitor waits for the child to exit and records the outcome.
func (c *Container) monitor(cmd *exec.Cmd, stopped chan struct{}) {
	err := cmd.Wait()
	code := exitCode(err)

	c.mu.Lock()
	c.state = ports.ContainerStopped
	if code == c.cfg.RestartExitCode {
		c.restart = true
	}
	c.mu.Unlock()

	c.logger.Info("child process exited",
		ports.Int("code", code),
		ports.Bool("restart", code == c.cfg.RestartExitCode))
	close(stopped)
}

// Stop signals the child to terminate. The child is expected to exit on
// SIGTERM; escalation to SIGKILL is the process boundary's decision
// after the shutdown budget runs out.
func (c *Container) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ports.ContainerActive && c.state != ports.ContainerStarting {
		return nil
	}
	c.state = ports.ContainerStopping
	if err := c.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("proc: signal child: %w", err)
	}
	return nil
}

// Kill forcibly terminates the child. Used after a shutdown timeout.
func (c *Container) Kill() {
	c.mu.Lock()
	cmd := c.cmd
	state := c.state
	c.mu.Unlock()

	if cmd == nil || state == ports.ContainerStopped {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		c.logger.Warn("proc: kill failed", ports.Err(err))
	}
}

// State reports the current operating state.
func (c *Container) State() ports.ContainerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitForStop blocks until the child exits or the timeout elapses.
// A timeout <= 0 waits indefinitely.
func (c *Container) WaitForStop(timeout time.Duration) (ports.StopOutcome, error) {
	c.mu.Lock()
	stopped := c.stopped
	c.mu.Unlock()

	if stopped == nil {
		// Never started; nothing to wait for.
		return ports.StopNormal, nil
	}
	if timeout <= 0 {
		<-stopped
		return ports.StopNormal, nil
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-stopped:
		return ports.StopNormal, nil
	case <-t.C:
		return ports.StopTimedOut, nil
	}
}

// SetReadinessLevel publishes the level to the readiness file.
// Written atomically (temp file, then rename) so readers never observe
// a partial value.
func (c *Container) SetReadinessLevel(level int) error {
	path := c.readinessPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(level)), 0o600); err != nil {
		return fmt.Errorf("proc: write readiness: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("proc: publish readiness: %w", err)
	}
	return nil
}

// RestartRequested reports whether the child exited with the configured
// restart exit code.
func (c *Container) RestartRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restart
}

func (c *Container) readinessPath() string {
	return filepath.Join(c.cfg.DataDir, ReadinessFileName)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return -1
}
