package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (HOLDFAST_*).
// It respects flags that have been explicitly set (changed map).
// Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", os.Getenv("HOLDFAST_DATA_DIR"), &cfg.DataDir)
	if err := s.setIntFromString("restart-exit-code", os.Getenv("HOLDFAST_RESTART_EXIT_CODE"), &cfg.RestartExitCode); err != nil {
		return err
	}

	s.setBoolFromString("lock", os.Getenv("HOLDFAST_USE_LOCK"), &cfg.UseLock)
	s.setString("lock-backend", os.Getenv("HOLDFAST_LOCK_BACKEND"), &cfg.LockBackend)
	s.setString("lock-file", os.Getenv("HOLDFAST_LOCK_FILE"), &cfg.LockFile)

	if err := s.setDuration("lock-delay", os.Getenv("HOLDFAST_LOCK_DELAY"), &cfg.LockDelay); err != nil {
		return err
	}
	if err := s.setIntFromString("lock-start-level", os.Getenv("HOLDFAST_LOCK_START_LEVEL"), &cfg.LockStartLevel); err != nil {
		return err
	}
	if err := s.setIntFromString("start-level", os.Getenv("HOLDFAST_DEFAULT_START_LEVEL"), &cfg.DefaultStartLevel); err != nil {
		return err
	}

	if err := s.setDuration("shutdown-timeout", os.Getenv("HOLDFAST_SHUTDOWN_TIMEOUT"), &cfg.ShutdownTimeout); err != nil {
		return err
	}
	if err := s.setDuration("shutdown-step", os.Getenv("HOLDFAST_SHUTDOWN_STEP"), &cfg.ShutdownStep); err != nil {
		return err
	}

	s.setString("shutdown-host", os.Getenv("HOLDFAST_SHUTDOWN_HOST"), &cfg.ShutdownHost)
	if err := s.setIntFromString("shutdown-port", os.Getenv("HOLDFAST_SHUTDOWN_PORT"), &cfg.ShutdownPort); err != nil {
		return err
	}
	s.setString("shutdown-port-file", os.Getenv("HOLDFAST_SHUTDOWN_PORT_FILE"), &cfg.ShutdownPortFile)
	s.setString("shutdown-command", os.Getenv("HOLDFAST_SHUTDOWN_COMMAND"), &cfg.ShutdownCommand)
	s.setString("shutdown-pid-file", os.Getenv("HOLDFAST_SHUTDOWN_PID_FILE"), &cfg.ShutdownPIDFile)

	return nil
}
