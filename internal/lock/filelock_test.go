package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/holdfast-io/holdfast/pkg/log"
)

func newTestLock(t *testing.T, path string) *FileLock {
	t.Helper()
	l, err := NewFileLock(path, log.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewFileLock: %v", err)
	}
	t.Cleanup(l.Release)
	return l
}

func mustAcquire(t *testing.T, l *FileLock) {
	t.Helper()
	held, err := l.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !held {
		t.Fatal("Acquire = false, want held")
	}
}

func TestFileLock_ExclusiveAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")

	first := newTestLock(t, path)
	second := newTestLock(t, path)

	mustAcquire(t, first)

	held, err := second.Acquire()
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if held {
		t.Fatal("two handles hold the same lock")
	}

	first.Release()

	// The loser can claim once the holder releases.
	mustAcquire(t, second)
}

func TestFileLock_AcquireIdempotentWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l := newTestLock(t, path)

	mustAcquire(t, l)
	mustAcquire(t, l)

	alive, err := l.IsAlive()
	if err != nil {
		t.Fatalf("IsAlive: %v", err)
	}
	if !alive {
		t.Error("IsAlive = false while held")
	}
}

func TestFileLock_RecordsOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l := newTestLock(t, path)
	mustAcquire(t, l)

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if !strings.HasPrefix(string(b), strconv.Itoa(os.Getpid())+"@") {
		t.Errorf("lock file content = %q, want pid@host", b)
	}
}

func TestFileLock_InvalidatedByFileRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l := newTestLock(t, path)
	mustAcquire(t, l)

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove lock file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		alive, err := l.IsAlive()
		if err != nil {
			t.Fatalf("IsAlive: %v", err)
		}
		if !alive {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("IsAlive stayed true after the lock file was removed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Re-contention after invalidation claims a fresh file.
	mustAcquire(t, l)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file not recreated: %v", err)
	}
}

func TestFileLock_IsAliveBeforeAcquire(t *testing.T) {
	l := newTestLock(t, filepath.Join(t.TempDir(), "lock"))
	alive, err := l.IsAlive()
	if err != nil {
		t.Fatalf("IsAlive: %v", err)
	}
	if alive {
		t.Error("IsAlive = true before Acquire")
	}
}

func TestFileLock_ReleaseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	l := newTestLock(t, path)
	mustAcquire(t, l)

	l.Release()
	l.Release()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("lock file still present after release: %v", err)
	}
}

func TestFileLock_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "lock")
	l := newTestLock(t, path)
	mustAcquire(t, l)
}

func TestNewFileLock_RequiresPath(t *testing.T) {
	if _, err := NewFileLock("", log.NewNoopLogger()); err == nil {
		t.Fatal("NewFileLock accepted an empty path")
	}
}
