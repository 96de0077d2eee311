package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/holdfast-io/holdfast/internal/ports"
)

// FileBackend is the name of the flock-based backend.
const FileBackend = "file"

func init() {
	Register(FileBackend, func(cfg Config, logger ports.Logger) (ports.Lock, error) {
		return NewFileLock(cfg.Path, logger)
	})
}

// FileLock claims exclusivity through an advisory flock(2) on a shared
// lock file. At most one process observes a successful acquire for a
// given path under normal filesystem semantics; this is best-effort,
// not linearizable, on unreliable network filesystems.
//
// While held, a fsnotify watcher on the lock directory flags external
// invalidation (lock file removed or renamed) so IsAlive can report the
// loss within one poll interval; a stat() backstop covers platforms
// where the watcher cannot be established.
type FileLock struct {
	path   string
	logger ports.Logger

	mu          sync.Mutex
	file        *os.File
	watcher     *fsnotify.Watcher
	invalidated bool
}

// NewFileLock creates a file lock for the given path. The parent
// directory is created if needed; nothing is claimed until Acquire.
func NewFileLock(path string, logger ports.Logger) (*FileLock, error) {
	if path == "" {
		return nil, fmt.Errorf("file lock: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file lock: create directory: %w", err)
	}
	return &FileLock{path: path, logger: logger}, nil
}

// Acquire attempts a non-blocking claim. Re-invocations while held
// return true without touching the filesystem. After an invalidation
// the stale handle is dropped and a fresh claim is attempted, so a
// demoted instance can re-contend.
func (l *FileLock) Acquire() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if !l.invalidated {
			return true, nil
		}
		l.dropLocked()
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return false, fmt.Errorf("file lock: open %s: %w", l.path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("file lock: flock %s: %w", l.path, err)
	}

	if err := l.writeOwner(f); err != nil {
		l.logger.Warn("file lock: could not record owner", ports.Err(err))
	}

	l.file = f
	l.invalidated = false
	l.startWatcher()
	return true, nil
}

// IsAlive reports whether the claim is still valid. The lock is lost
// when the file disappears out from under us, which the watcher flags
// eagerly and a stat() confirms.
func (l *FileLock) IsAlive() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return false, nil
	}
	if l.invalidated {
		return false, nil
	}
	if _, err := os.Stat(l.path); err != nil {
		if os.IsNotExist(err) {
			l.invalidated = true
			return false, nil
		}
		return false, fmt.Errorf("file lock: stat %s: %w", l.path, err)
	}
	return true, nil
}

// Release gives up the claim and removes the lock file. Idempotent;
// failures are logged, never propagated.
func (l *FileLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	removable := !l.invalidated
	l.dropLocked()
	if removable {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			l.logger.Warn("file lock: remove failed",
				ports.String("path", l.path),
				ports.Err(err))
		}
	}
}

// dropLocked releases the flock and watcher without removing the file.
// Caller holds l.mu.
func (l *FileLock) dropLocked() {
	if l.watcher != nil {
		l.watcher.Close()
		l.watcher = nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		l.logger.Warn("file lock: unlock failed", ports.Err(err))
	}
	if err := l.file.Close(); err != nil {
		l.logger.Warn("file lock: close failed", ports.Err(err))
	}
	l.file = nil
}

func (l *FileLock) writeOwner(f *os.File) error {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "%d@%s\n", os.Getpid(), host)
	return err
}

// startWatcher arms the invalidation watcher for the current hold.
// Caller holds l.mu. A watcher failure is not fatal: IsAlive still
// stats the file every poll.
func (l *FileLock) startWatcher() {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		l.logger.Warn("file lock: watcher unavailable, relying on stat", ports.Err(err))
		return
	}
	if err := w.Add(filepath.Dir(l.path)); err != nil {
		l.logger.Warn("file lock: cannot watch lock directory", ports.Err(err))
		w.Close()
		return
	}
	l.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Name != l.path {
					continue
				}
				if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				l.mu.Lock()
				l.invalidated = true
				l.mu.Unlock()
				l.logger.Warn("file lock: lock file disappeared",
					ports.String("path", l.path))
				return
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
				// Watcher errors degrade to the stat backstop.
			}
		}
	}()
}
