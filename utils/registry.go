package utils

import "sync"

// Registry is a small named-value registry used to look up pluggable
// providers by name.
type Registry[T any] struct {
	mu  sync.RWMutex
	set map[string]T
}

func (reg *Registry[T]) Register(name string, val T) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.set == nil {
		reg.set = make(map[string]T)
	}

	reg.set[name] = val
}

// Lookup reads a nil map safely, so only Register allocates the map.
func (reg *Registry[T]) Lookup(name string) (val T, ok bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	val, ok = reg.set[name]
	return val, ok
}

// Range
func (reg *Registry[T]) Range(fn func(name string, val T)) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for name, val := range reg.set {
		fn(name, val)
	}
}
