package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/mimic/internal/domain"
)

// Registry is the in-memory collection of virtual services.
//
// No two members share an identity and no two members handle the same
// requests. Members keep their insertion order, which decides which service
// wins in TryGetWhere. One lock guards the collection and every operation
// holds it from start to end.
type Registry struct {
	mu         sync.RWMutex
	services   []*domain.Service
	lastChange time.Time // Timestamp of the last successful mutation
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// TryAdd inserts service unless a member has the same identity or handles
// the same requests. It reports whether the service was added.
func (r *Registry) TryAdd(service *domain.Service) bool {
	if service == nil {
		panic("registry: nil service")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.services {
		if existing.ID() == service.ID() || existing.HandlesSameRequests(service) {
			return false
		}
	}

	r.services = append(r.services, service)
	r.lastChange = time.Now()
	return true
}

// TryGetByID retrieves a service by identity.
func (r *Registry) TryGetByID(id uuid.UUID) (*domain.Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.services {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// TryGetWhere returns the first service, in insertion order, for which
// predicate holds.
func (r *Registry) TryGetWhere(predicate func(*domain.Service) bool) (*domain.Service, bool) {
	if predicate == nil {
		panic("registry: nil predicate")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.services {
		if predicate(s) {
			return s, true
		}
	}
	return nil, false
}

// TryRemove removes every service with the given identity and reports
// whether anything was removed.
func (r *Registry) TryRemove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.services[:0]
	for _, s := range r.services {
		if s.ID() != id {
			kept = append(kept, s)
		}
	}
	// Drop references held by the tail of the old backing array.
	for i := len(kept); i < len(r.services); i++ {
		r.services[i] = nil
	}

	removed := len(kept) != len(r.services)
	r.services = kept
	if removed {
		r.lastChange = time.Now()
	}
	return removed
}

// Clear removes all services and returns how many were removed.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.services)
	r.services = nil
	r.lastChange = time.Now()
	return n
}

// Contains reports whether this exact service instance is a member.
func (r *Registry) Contains(service *domain.Service) bool {
	if service == nil {
		panic("registry: nil service")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.services {
		if s == service {
			return true
		}
	}
	return false
}

// Count returns the number of services in the registry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.services)
}

// GetLastChange returns the timestamp of the last add, remove or clear.
func (r *Registry) GetLastChange() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastChange
}
