package resources

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khulnasoft/DataLineup/errors"
)

// Lease identifies one outstanding acquisition of a typed resource.
type Lease struct {
	ID           string
	ResourceType string
	ResourceName string
	AcquiredAt   time.Time
}

// entry tracks one registered instance of a resource type: its value,
// whether it's currently leased, and when it was last released (for
// delay-after-release and LRU tie-break among ready instances).
type entry[T any] struct {
	name        string
	value       T
	busy        bool
	releasedAt  time.Time
	delayAfter  time.Duration
	limiter     Limiter
	activeLease string
}

// Pool holds every registered instance of a single resource type and
// arbitrates acquisition among concurrent callers.
type Pool[T any] struct {
	typeName string

	mu      sync.Mutex
	entries map[string]*entry[T]
	waiters []chan struct{}
}

// NewPool creates an empty pool for the named resource type.
func NewPool[T any](typeName string) *Pool[T] {
	return &Pool[T]{typeName: typeName, entries: make(map[string]*entry[T])}
}

// Add registers (or replaces) a named instance. delayAfter is the
// minimum time that must pass after a release before the instance is
// eligible for acquisition again; limiter, if non-nil, additionally
// gates how often the instance may be acquired.
func (p *Pool[T]) Add(name string, value T, delayAfter time.Duration, limiter Limiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[name] = &entry[T]{name: name, value: value, delayAfter: delayAfter, limiter: limiter}
}

// Remove drops a named instance. Safe to call while it is leased; the
// holder's eventual Release becomes a no-op for bookkeeping purposes.
func (p *Pool[T]) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, name)
}

// Len reports how many instances are currently registered.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Acquire blocks until an instance is ready (not busy, past its release
// delay, and passing its limiter) or ctx is done. Among ready instances
// it picks the least-recently-released one (LRU tie-break). With no
// instance registered it fails at once with KindResourceExhausted.
func (p *Pool[T]) Acquire(ctx context.Context) (*Lease, T, error) {
	var zero T
	for {
		lease, value, ready, err := p.tryAcquire()
		if err != nil {
			return nil, zero, err
		}
		if ready {
			return lease, value, nil
		}

		wake := p.register()
		select {
		case <-ctx.Done():
			p.unregister(wake)
			return nil, zero, ctx.Err()
		case <-wake:
		case <-time.After(50 * time.Millisecond):
			// poll periodically in case a delay-after-release window elapsed
			// without an explicit Release waking us
		}
	}
}

func (p *Pool[T]) tryAcquire() (*Lease, T, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	if len(p.entries) == 0 {
		return nil, zero, false, errors.WithKind(
			errors.Newf("no resource of type %q registered", p.typeName),
			errors.KindResourceExhausted,
		)
	}

	now := time.Now()
	var best *entry[T]
	for _, e := range p.entries {
		if e.busy {
			continue
		}
		if !e.releasedAt.IsZero() && now.Sub(e.releasedAt) < e.delayAfter {
			continue
		}
		if best == nil || e.releasedAt.Before(best.releasedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, zero, false, nil
	}
	if best.limiter != nil {
		if err := best.limiter.Allow(now); err != nil {
			return nil, zero, false, nil
		}
	}

	best.busy = true
	best.activeLease = uuid.NewString()
	return &Lease{
		ID:           best.activeLease,
		ResourceType: p.typeName,
		ResourceName: best.name,
		AcquiredAt:   now,
	}, best.value, true, nil
}

// Release returns a leased instance to the pool. Releasing a lease of an
// instance that was removed is a no-op. Releasing a lease that is not the
// instance's active one is a configuration-invariant violation the caller
// should treat as fatal rather than silently swallow.
func (p *Pool[T]) Release(lease *Lease) error {
	p.mu.Lock()
	e, ok := p.entries[lease.ResourceName]
	if !ok {
		// the instance was removed while leased
		p.mu.Unlock()
		return nil
	}
	if e.activeLease != lease.ID {
		p.mu.Unlock()
		return errors.WithKind(errors.Newf("release of unknown lease %s for %s/%s", lease.ID, lease.ResourceType, lease.ResourceName), errors.KindFatal)
	}
	e.busy = false
	e.activeLease = ""
	e.releasedAt = time.Now()
	p.mu.Unlock()

	p.wake()
	return nil
}

func (p *Pool[T]) register() chan struct{} {
	ch := make(chan struct{}, 1)
	p.mu.Lock()
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()
	return ch
}

func (p *Pool[T]) unregister(ch chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == ch {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}

func (p *Pool[T]) wake() {
	p.mu.Lock()
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, w := range waiters {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}
