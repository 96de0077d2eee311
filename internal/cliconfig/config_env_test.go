package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("HOLDFAST_DATA_DIR", "/env/data")
	t.Setenv("HOLDFAST_USE_LOCK", "false")
	t.Setenv("HOLDFAST_LOCK_DELAY", "750ms")
	t.Setenv("HOLDFAST_SHUTDOWN_PORT", "-1")
	t.Setenv("HOLDFAST_SHUTDOWN_COMMAND", "HALT")
	t.Setenv("HOLDFAST_RESTART_EXIT_CODE", "42")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig: %v", err)
	}

	if cfg.DataDir != "/env/data" {
		t.Errorf("DataDir = %v", cfg.DataDir)
	}
	if cfg.UseLock {
		t.Error("UseLock = true, want false from env")
	}
	if cfg.LockDelay != 750*time.Millisecond {
		t.Errorf("LockDelay = %v, want 750ms", cfg.LockDelay)
	}
	if cfg.ShutdownPort != -1 {
		t.Errorf("ShutdownPort = %v, want -1", cfg.ShutdownPort)
	}
	if cfg.ShutdownCommand != "HALT" {
		t.Errorf("ShutdownCommand = %v, want HALT", cfg.ShutdownCommand)
	}
	if cfg.RestartExitCode != 42 {
		t.Errorf("RestartExitCode = %v, want 42", cfg.RestartExitCode)
	}
}

func TestApplyEnvConfig_FlagsWin(t *testing.T) {
	t.Setenv("HOLDFAST_DATA_DIR", "/env/data")

	cfg := DefaultConfig()
	cfg.DataDir = "/from/flag"
	changed := map[string]bool{"data-dir": true}

	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig: %v", err)
	}
	if cfg.DataDir != "/from/flag" {
		t.Errorf("DataDir = %v, flag value lost", cfg.DataDir)
	}
}

func TestApplyEnvConfig_InvalidValues(t *testing.T) {
	t.Setenv("HOLDFAST_SHUTDOWN_TIMEOUT", "soon")
	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err == nil {
		t.Fatal("invalid duration accepted")
	}

	t.Setenv("HOLDFAST_SHUTDOWN_TIMEOUT", "")
	t.Setenv("HOLDFAST_SHUTDOWN_PORT", "eight")
	cfg = DefaultConfig()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err == nil {
		t.Fatal("invalid port accepted")
	}
}

func TestApplyEnvConfig_EmptyEnvironment(t *testing.T) {
	cfg := DefaultConfig()
	want := cfg
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig: %v", err)
	}
	if cfg.LockDelay != want.LockDelay || cfg.ShutdownCommand != want.ShutdownCommand {
		t.Error("defaults mutated by empty environment")
	}
}
