// Package shutdown implements the network-reachable control channel that
// accepts an orderly-stop command for the supervised container.
package shutdown

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/holdfast-io/holdfast/internal/domain"
	"github.com/holdfast-io/holdfast/internal/ports"
)

// DefaultCommand is the stop command accepted when none is configured.
const DefaultCommand = "SHUTDOWN"

// Config describes where the channel listens and what it accepts.
type Config struct {
	// Host to bind on. Defaults to "localhost".
	Host string

	// Port to bind on. 0 lets the platform choose an ephemeral port;
	// a negative port disables the channel entirely.
	Port int

	// PortFile, when set, receives the resolved port as plain decimal
	// text before the listener begins accepting connections.
	PortFile string

	// PIDFile, when set, receives this process's PID as plain decimal
	// text at setup time.
	PIDFile string

	// Command is the exact line of text that triggers a stop.
	// Compared case-sensitively. Defaults to DefaultCommand.
	Command string
}

// Channel listens for the stop command. The protocol is deliberately a
// minimal fire-and-forget signal: one text line per connection, no
// acknowledgement, no error codes. Anything other than an exact match
// closes the connection with no side effects.
type Channel struct {
	cfg    Config
	stop   func()
	logger ports.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// New creates a channel that invokes stop when the configured command is
// received. stop is called asynchronously so a slow container stop never
// blocks the accept loop.
func New(cfg Config, stop func(), logger ports.Logger) *Channel {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	return &Channel{cfg: cfg, stop: stop, logger: logger}
}

// Start binds the listener, writes the PID and port announcement files,
// and spawns the accept loop. Returns ErrChannelDisabled for a negative
// port. The listener accepts connections until the process exits or
// Close is called.
func (c *Channel) Start() error {
	if c.cfg.Port < 0 {
		return domain.ErrChannelDisabled
	}

	c.writePID()

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind shutdown channel on %s: %w", addr, err)
	}

	c.mu.Lock()
	c.ln = ln
	c.mu.Unlock()

	if c.cfg.PortFile != "" {
		port := ln.Addr().(*net.TCPAddr).Port
		if err := os.WriteFile(c.cfg.PortFile, []byte(strconv.Itoa(port)), 0o600); err != nil {
			ln.Close()
			return fmt.Errorf("write port file: %w", err)
		}
	}

	c.logger.Info("shutdown channel listening",
		ports.String("addr", ln.Addr().String()))

	c.wg.Add(1)
	go c.acceptLoop(ln)
	return nil
}

// Port returns the bound port, or -1 if the channel is not listening.
func (c *Channel) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ln == nil {
		return -1
	}
	return c.ln.Addr().(*net.TCPAddr).Port
}

// Close stops the listener and waits for the accept loop to drain.
// Used by tests; in production the channel lives until process exit.
func (c *Channel) Close() error {
	c.mu.Lock()
	ln := c.ln
	c.ln = nil
	c.mu.Unlock()

	if ln == nil {
		return nil
	}
	err := ln.Close()
	c.wg.Wait()
	return err
}

func (c *Channel) acceptLoop(ln net.Listener) {
	defer c.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			// Listener closed, or a transient accept failure on a
			// dying socket; either way the loop is done.
			return
		}
		c.handle(conn)
	}
}

func (c *Channel) handle(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}
	line := scanner.Text()

	if line != c.cfg.Command {
		// Protocol mismatch is not an error: ignore and close.
		c.logger.Debug("ignoring unrecognized control command")
		return
	}

	c.logger.Info("shutdown command received",
		ports.String("remote", conn.RemoteAddr().String()))
	go c.stop()
}

// writePID records the process identifier. Failures are logged, not
// fatal: the process stays reachable via the process-boundary stop path.
func (c *Channel) writePID() {
	if c.cfg.PIDFile == "" {
		return
	}
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(c.cfg.PIDFile, []byte(pid), 0o600); err != nil {
		c.logger.Error("write pid file failed",
			ports.String("path", c.cfg.PIDFile),
			ports.Err(err))
	}
}
