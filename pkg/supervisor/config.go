package supervisor

import (
	"fmt"
	"time"

	"github.com/holdfast-io/holdfast/internal/domain"
	"github.com/holdfast-io/holdfast/internal/lock"
	"github.com/holdfast-io/holdfast/internal/shutdown"
)

// Config holds the supervisor configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// UseLock enables the active/standby election. When false the
	// instance promotes itself to DefaultStartLevel immediately.
	UseLock bool

	// LockBackend selects the registered lock strategy. Default "file".
	LockBackend string

	// LockFile is the shared resource claimed by filesystem backends.
	// Required when UseLock is true and no custom lock is injected.
	LockFile string

	// LockDelay is the election polling interval. Default 1s.
	LockDelay time.Duration

	// LockStartLevel is the standby readiness level. Default 1.
	LockStartLevel int

	// DefaultStartLevel is the active readiness level. Default 100.
	DefaultStartLevel int

	// ShutdownTimeout bounds the graceful stop. <= 0 waits indefinitely.
	// Default 5m.
	ShutdownTimeout time.Duration

	// ShutdownStep is the polling step inside the graceful stop, and the
	// cadence of shutdown-progress callbacks. Default 5s.
	ShutdownStep time.Duration

	// ShutdownHost is the control channel bind host. Default "localhost".
	ShutdownHost string

	// ShutdownPort is the control channel port. 0 picks an ephemeral
	// port; a negative value disables the channel.
	ShutdownPort int

	// ShutdownPortFile, when set, receives the resolved port as decimal text.
	ShutdownPortFile string

	// ShutdownCommand is the line of text that triggers a stop. Default "SHUTDOWN".
	ShutdownCommand string

	// ShutdownPIDFile, when set, receives the process PID as decimal text.
	ShutdownPIDFile string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		UseLock:           true,
		LockBackend:       lock.FileBackend,
		LockDelay:         time.Second,
		LockStartLevel:    1,
		DefaultStartLevel: 100,
		ShutdownTimeout:   5 * time.Minute,
		ShutdownStep:      5 * time.Second,
		ShutdownHost:      "localhost",
		ShutdownPort:      0,
		ShutdownCommand:   shutdown.DefaultCommand,
	}
}

// SetDefaults fills zero-valued fields that have non-zero defaults.
// UseLock and ShutdownPort are left alone: false and 0 are meaningful.
func (c *Config) SetDefaults() {
	if c.LockBackend == "" {
		c.LockBackend = lock.FileBackend
	}
	if c.LockDelay == 0 {
		c.LockDelay = time.Second
	}
	if c.LockStartLevel == 0 {
		c.LockStartLevel = 1
	}
	if c.DefaultStartLevel == 0 {
		c.DefaultStartLevel = 100
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 5 * time.Minute
	}
	if c.ShutdownStep == 0 {
		c.ShutdownStep = 5 * time.Second
	}
	if c.ShutdownHost == "" {
		c.ShutdownHost = "localhost"
	}
	if c.ShutdownCommand == "" {
		c.ShutdownCommand = shutdown.DefaultCommand
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.LockDelay <= 0 {
		return fmt.Errorf("%w: lock delay must be positive", domain.ErrInvalidConfig)
	}
	if c.ShutdownStep <= 0 {
		return fmt.Errorf("%w: shutdown step must be positive", domain.ErrInvalidConfig)
	}
	if c.LockStartLevel < 0 {
		return fmt.Errorf("%w: lock start level must not be negative", domain.ErrInvalidConfig)
	}
	if c.DefaultStartLevel <= c.LockStartLevel {
		return fmt.Errorf("%w: default start level %d must exceed lock start level %d",
			domain.ErrInvalidConfig, c.DefaultStartLevel, c.LockStartLevel)
	}
	return nil
}
