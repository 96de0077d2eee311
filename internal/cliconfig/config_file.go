package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and pointers
// where zero values are meaningful, to make TOML friendly.
type FileConfig struct {
	DataDir         string `toml:"data_dir"`
	RestartExitCode int    `toml:"restart_exit_code"`

	UseLock           *bool  `toml:"use_lock"`
	LockBackend       string `toml:"lock_backend"`
	LockFile          string `toml:"lock_file"`
	LockDelay         string `toml:"lock_delay"`
	LockStartLevel    int    `toml:"lock_start_level"`
	DefaultStartLevel int    `toml:"default_start_level"`

	ShutdownTimeout  string `toml:"shutdown_timeout"`
	ShutdownStep     string `toml:"shutdown_step"`
	ShutdownHost     string `toml:"shutdown_host"`
	ShutdownPort     *int   `toml:"shutdown_port"`
	ShutdownPortFile string `toml:"shutdown_port_file"`
	ShutdownCommand  string `toml:"shutdown_command"`
	ShutdownPIDFile  string `toml:"shutdown_pid_file"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.holdfast/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".holdfast", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setInt("restart-exit-code", fc.RestartExitCode, &cfg.RestartExitCode)

	s.setBool("lock", fc.UseLock, &cfg.UseLock)
	s.setString("lock-backend", fc.LockBackend, &cfg.LockBackend)
	s.setString("lock-file", fc.LockFile, &cfg.LockFile)
	s.setInt("lock-start-level", fc.LockStartLevel, &cfg.LockStartLevel)
	s.setInt("start-level", fc.DefaultStartLevel, &cfg.DefaultStartLevel)

	if err := s.setDuration("lock-delay", fc.LockDelay, &cfg.LockDelay); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-timeout", fc.ShutdownTimeout, &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-step", fc.ShutdownStep, &cfg.ShutdownStep); err != nil {
		return err
	}

	s.setString("shutdown-host", fc.ShutdownHost, &cfg.ShutdownHost)
	s.setIntPtr("shutdown-port", fc.ShutdownPort, &cfg.ShutdownPort)
	s.setString("shutdown-port-file", fc.ShutdownPortFile, &cfg.ShutdownPortFile)
	s.setString("shutdown-command", fc.ShutdownCommand, &cfg.ShutdownCommand)
	s.setString("shutdown-pid-file", fc.ShutdownPIDFile, &cfg.ShutdownPIDFile)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
