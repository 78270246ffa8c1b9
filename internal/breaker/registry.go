package breaker

import (
	"sort"
	"sync"
)

// Registry holds the named breakers of a process so health reporting can
// enumerate them
type Registry struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewRegistry creates an empty breaker registry
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*Breaker)}
}

// Register adds a breaker under its name, replacing any previous entry
func (r *Registry) Register(b *Breaker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breakers[b.Name()] = b
}

// Get returns the breaker registered under name, or nil
func (r *Registry) Get(name string) *Breaker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.breakers[name]
}

// Names returns the registered breaker names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StatusAll returns a status snapshot for every registered breaker
func (r *Registry) StatusAll() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	statuses := make(map[string]Status, len(r.breakers))
	for name, b := range r.breakers {
		statuses[name] = b.Status()
	}
	return statuses
}
