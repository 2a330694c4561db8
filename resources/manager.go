package resources

import (
	"context"
	"sync"
	"time"
)

// ProvidedResource is one named instance of a typed resource, as
// contributed by a ResourcesProvider or a static declarative object.
type ProvidedResource struct {
	Type       string
	Name       string
	Value      any
	DelayAfter time.Duration
	Limiter    Limiter
}

// ResourcesProvider runs in the background contributing ProvidedResources
// to a Manager, e.g. discovering instances from an external inventory.
type ResourcesProvider interface {
	Run(ctx context.Context, add func(ProvidedResource)) error
}

// Manager owns one Pool[any] per resource type and is the worker's single
// shared-mutable-singleton for typed resource acquisition.
type Manager struct {
	mu    sync.Mutex
	pools map[string]*Pool[any]
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{pools: make(map[string]*Pool[any])}
}

func (m *Manager) poolFor(typeName string) *Pool[any] {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[typeName]
	if !ok {
		p = NewPool[any](typeName)
		m.pools[typeName] = p
	}
	return p
}

// Add registers a named instance of a resource type.
func (m *Manager) Add(r ProvidedResource) {
	m.poolFor(r.Type).Add(r.Name, r.Value, r.DelayAfter, r.Limiter)
}

// Remove drops a named instance of a resource type.
func (m *Manager) Remove(typeName, name string) {
	m.poolFor(typeName).Remove(name)
}

// Count reports how many instances of typeName are registered.
func (m *Manager) Count(typeName string) int {
	return m.poolFor(typeName).Len()
}

// Acquire blocks until an instance of typeName is available or ctx is
// done. With no instance of typeName registered it fails at once with
// KindResourceExhausted.
func (m *Manager) Acquire(ctx context.Context, typeName string) (*Lease, any, error) {
	return m.poolFor(typeName).Acquire(ctx)
}

// Release returns a leased instance to its pool.
func (m *Manager) Release(lease *Lease) error {
	return m.poolFor(lease.ResourceType).Release(lease)
}

// RunProvider drives a ResourcesProvider until ctx is cancelled, feeding
// everything it contributes into the Manager.
func (m *Manager) RunProvider(ctx context.Context, provider ResourcesProvider) error {
	return provider.Run(ctx, m.Add)
}
