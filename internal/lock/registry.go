// Package lock provides the mutual-exclusion backends used to elect one
// active supervisor among cooperating processes. Backends are registered
// by name and selected via configuration, so the election loop stays
// agnostic to which strategy is installed.
package lock

import (
	"fmt"
	"sort"
	"sync"

	"github.com/holdfast-io/holdfast/internal/domain"
	"github.com/holdfast-io/holdfast/internal/ports"
)

// Config carries backend-independent lock settings. Backends ignore
// fields they have no use for.
type Config struct {
	// Path is the shared resource claimed by filesystem-based backends.
	Path string
}

// Factory constructs a lock backend from its configuration.
type Factory func(cfg Config, logger ports.Logger) (ports.Lock, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a lock backend available under the given name.
// Panics if the name is already taken, mirroring database/sql.Register.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("lock: Register called twice for backend " + name)
	}
	registry[name] = factory
}

// New constructs the backend registered under name.
func New(name string, cfg Config, logger ports.Logger) (ports.Lock, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", domain.ErrLockBackendUnknown, name, Backends())
	}
	return factory(cfg, logger)
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
