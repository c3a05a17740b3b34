package ratelimiter

import (
	"sync"
)

// Registry holds limiters keyed by name, e.g. one per provider capability.
type Registry interface {
	Get(name string) (Limiter, bool)
	Set(name string, limiter Limiter)
}

type mapRegistry struct {
	registry map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry creates a new in-memory limiter registry.
func NewRegistry() Registry {
	return &mapRegistry{
		registry: make(map[string]Limiter),
	}
}

func (r *mapRegistry) Get(name string) (Limiter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, ok := r.registry[name]
	return limiter, ok
}

func (r *mapRegistry) Set(name string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter == nil {
		delete(r.registry, name)
		return
	}
	r.registry[name] = limiter
}
