package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds CLI configuration for holdfast.
type Config struct {
	// DataDir holds runtime state: the readiness file and, by default,
	// the lock file.
	DataDir string

	// Command is the child argv to supervise. Taken from positional
	// arguments only, never from file or environment.
	Command []string

	// RestartExitCode is the child exit code requesting a full restart.
	RestartExitCode int

	UseLock           bool
	LockBackend       string
	LockFile          string
	LockDelay         time.Duration
	LockStartLevel    int
	DefaultStartLevel int

	ShutdownTimeout  time.Duration
	ShutdownStep     time.Duration
	ShutdownHost     string
	ShutdownPort     int
	ShutdownPortFile string
	ShutdownCommand  string
	ShutdownPIDFile  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		RestartExitCode:   10,
		UseLock:           true,
		LockBackend:       "file",
		LockDelay:         time.Second,
		LockStartLevel:    1,
		DefaultStartLevel: 100,
		ShutdownTimeout:   5 * time.Minute,
		ShutdownStep:      5 * time.Second,
		ShutdownHost:      "localhost",
		ShutdownPort:      0,
		ShutdownCommand:   "SHUTDOWN",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if len(c.Command) == 0 {
		return fmt.Errorf("a command to supervise is required (pass it after --)")
	}

	if c.DataDir == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("data-dir is required (home directory unavailable: %w)", err)
		}
		c.DataDir = filepath.Join(h, ".holdfast", "data")
	}

	if c.LockFile == "" {
		c.LockFile = filepath.Join(c.DataDir, "lock")
	}

	if c.LockDelay <= 0 {
		return fmt.Errorf("lock delay must be positive")
	}
	if c.ShutdownStep <= 0 {
		return fmt.Errorf("shutdown step must be positive")
	}
	if c.DefaultStartLevel <= c.LockStartLevel {
		return fmt.Errorf("start-level must exceed lock-start-level")
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer if not nil and flag not
// changed. Used for fields where zero and negative values are meaningful,
// such as the shutdown port.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings. Zero and negative
// values are applied; an empty string is skipped.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
