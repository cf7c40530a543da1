package inference

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor creates a Provider from configuration.
type Constructor func(cfg Config) (Provider, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a backend constructor under the given name.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Open creates the backend registered under name.
func Open(name string, cfg Config) (Provider, error) {
	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown inference backend: %s", name)
	}
	return ctor(cfg)
}

// Backends returns the names of all registered backends, sorted.
func Backends() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
