package cliconfig

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.UseLock {
		t.Error("UseLock = false, want true")
	}
	if cfg.LockBackend != "file" {
		t.Errorf("LockBackend = %v, want file", cfg.LockBackend)
	}
	if cfg.LockDelay != time.Second {
		t.Errorf("LockDelay = %v, want 1s", cfg.LockDelay)
	}
	if cfg.LockStartLevel != 1 {
		t.Errorf("LockStartLevel = %v, want 1", cfg.LockStartLevel)
	}
	if cfg.DefaultStartLevel != 100 {
		t.Errorf("DefaultStartLevel = %v, want 100", cfg.DefaultStartLevel)
	}
	if cfg.ShutdownTimeout != 5*time.Minute {
		t.Errorf("ShutdownTimeout = %v, want 5m", cfg.ShutdownTimeout)
	}
	if cfg.ShutdownStep != 5*time.Second {
		t.Errorf("ShutdownStep = %v, want 5s", cfg.ShutdownStep)
	}
	if cfg.ShutdownHost != "localhost" {
		t.Errorf("ShutdownHost = %v, want localhost", cfg.ShutdownHost)
	}
	if cfg.ShutdownPort != 0 {
		t.Errorf("ShutdownPort = %v, want 0", cfg.ShutdownPort)
	}
	if cfg.ShutdownCommand != "SHUTDOWN" {
		t.Errorf("ShutdownCommand = %v, want SHUTDOWN", cfg.ShutdownCommand)
	}
	if cfg.RestartExitCode != 10 {
		t.Errorf("RestartExitCode = %v, want 10", cfg.RestartExitCode)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.Command = []string{"sleep", "60"}
		cfg.DataDir = "/var/lib/holdfast"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing command", func(c *Config) { c.Command = nil }, true},
		{"zero lock delay", func(c *Config) { c.LockDelay = 0 }, true},
		{"zero shutdown step", func(c *Config) { c.ShutdownStep = 0 }, true},
		{"start level below standby", func(c *Config) { c.DefaultStartLevel = 1; c.LockStartLevel = 1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_DerivesLockFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Command = []string{"sleep", "60"}
	cfg.DataDir = "/var/lib/holdfast"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if want := filepath.Join("/var/lib/holdfast", "lock"); cfg.LockFile != want {
		t.Errorf("LockFile = %v, want %v", cfg.LockFile, want)
	}

	cfg = DefaultConfig()
	cfg.Command = []string{"sleep", "60"}
	cfg.DataDir = "/var/lib/holdfast"
	cfg.LockFile = "/run/lock/holdfast"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.LockFile != "/run/lock/holdfast" {
		t.Errorf("LockFile = %v, explicit value overridden", cfg.LockFile)
	}
}

func TestConfigSetter_FlagPrecedence(t *testing.T) {
	s := newConfigSetter(map[string]bool{"data-dir": true})

	dir := "/from/flag"
	s.setString("data-dir", "/from/file", &dir)
	if dir != "/from/flag" {
		t.Errorf("changed flag overwritten: %v", dir)
	}

	host := "localhost"
	s.setString("shutdown-host", "0.0.0.0", &host)
	if host != "0.0.0.0" {
		t.Errorf("unchanged flag not applied: %v", host)
	}

	host = "localhost"
	s.setString("shutdown-host", "", &host)
	if host != "localhost" {
		t.Errorf("empty value applied: %v", host)
	}
}

func TestConfigSetter_PortSemantics(t *testing.T) {
	s := newConfigSetter(map[string]bool{})

	// Pointer setter applies zero and negative values; both are meaningful
	// for the shutdown port.
	port := 8101
	disabled := -1
	s.setIntPtr("shutdown-port", &disabled, &port)
	if port != -1 {
		t.Errorf("negative port not applied: %v", port)
	}

	port = 8101
	s.setIntPtr("shutdown-port", nil, &port)
	if port != 8101 {
		t.Errorf("nil pointer mutated the destination: %v", port)
	}

	port = 8101
	if err := s.setIntFromString("shutdown-port", "-1", &port); err != nil {
		t.Fatalf("setIntFromString: %v", err)
	}
	if port != -1 {
		t.Errorf("negative port from string not applied: %v", port)
	}
	if err := s.setIntFromString("shutdown-port", "not-a-port", &port); err == nil {
		t.Error("invalid int accepted")
	}
}
