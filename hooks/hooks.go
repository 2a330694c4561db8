// Package hooks implements the three pluggable interception shapes that
// wrap every pipeline stage transition for metrics, tracing, and policy:
// plain event hooks, before/after generator hooks, and a decorated-scope
// helper built on top of the generator shape.
package hooks

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler observes a stage transition; errors are logged but never
// abort the producer.
type EventHandler func(ctx context.Context, payload any)

// EventHook fans a transition out to every registered handler in
// parallel, collecting (and logging) any panics or blocking mistakes
// without propagating them to the caller.
type EventHook struct {
	mu       sync.RWMutex
	handlers []EventHandler
	log      *zap.SugaredLogger
}

// NewEventHook returns an EventHook that logs handler panics via log,
// which may be nil to operate silently.
func NewEventHook(log *zap.SugaredLogger) *EventHook {
	return &EventHook{log: log}
}

// Register adds a handler, returning an unregister function.
func (h *EventHook) Register(handler EventHandler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers = append(h.handlers, handler)
	idx := len(h.handlers) - 1
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if idx < len(h.handlers) {
			h.handlers[idx] = nil
		}
	}
}

// Emit runs every registered handler concurrently and waits for all of
// them, regardless of individual failures.
func (h *EventHook) Emit(ctx context.Context, payload any) {
	h.mu.RLock()
	handlers := make([]EventHandler, len(h.handlers))
	copy(handlers, h.handlers)
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		wg.Add(1)
		go func(fn EventHandler) {
			defer wg.Done()
			defer h.recoverPanic()
			fn(ctx, payload)
		}(handler)
	}
	wg.Wait()
}

func (h *EventHook) recoverPanic() {
	if r := recover(); r != nil && h.log != nil {
		h.log.Errorw("hook handler panicked", "recovered", r)
	}
}

// Before runs before a guarded region and returns opaque state threaded
// into After.
type Before func(ctx context.Context, payload any) (state any)

// After runs once the guarded region completes, observing its result or
// error. The LIFO ordering of handler registration governs unwind order.
type After func(ctx context.Context, state any, result any, err error)

// GeneratorHook models a before/after pair around a guarded region,
// unwinding registered handlers in reverse (LIFO) order like deferred
// RAII cleanup.
type GeneratorHook struct {
	mu     sync.RWMutex
	before []Before
	after  []After
	log    *zap.SugaredLogger
}

// NewGeneratorHook returns an empty GeneratorHook.
func NewGeneratorHook(log *zap.SugaredLogger) *GeneratorHook {
	return &GeneratorHook{log: log}
}

// Register adds a before/after pair.
func (h *GeneratorHook) Register(before Before, after After) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.before = append(h.before, before)
	h.after = append(h.after, after)
}

// Wrap runs every before handler (in registration order), then fn, then
// every after handler in reverse order, passing fn's result or error
// through unmodified.
func (h *GeneratorHook) Wrap(ctx context.Context, payload any, fn func(ctx context.Context) (any, error)) (any, error) {
	h.mu.RLock()
	before := make([]Before, len(h.before))
	after := make([]After, len(h.after))
	copy(before, h.before)
	copy(after, h.after)
	h.mu.RUnlock()

	states := make([]any, len(before))
	for i, b := range before {
		states[i] = h.runBefore(ctx, b, payload)
	}

	result, err := fn(ctx)

	for i := len(after) - 1; i >= 0; i-- {
		h.runAfter(ctx, after[i], states[i], result, err)
	}

	return result, err
}

func (h *GeneratorHook) runBefore(ctx context.Context, b Before, payload any) (state any) {
	defer func() {
		if r := recover(); r != nil && h.log != nil {
			h.log.Errorw("hook before-handler panicked", "recovered", r)
		}
	}()
	return b(ctx, payload)
}

func (h *GeneratorHook) runAfter(ctx context.Context, a After, state, result any, err error) {
	defer func() {
		if r := recover(); r != nil && h.log != nil {
			h.log.Errorw("hook after-handler panicked", "recovered", r)
		}
	}()
	a(ctx, state, result, err)
}

// Scope converts a plain function into a GeneratorHook-wrapped call,
// reproducing the decorator shape as a higher-order function.
func Scope(h *GeneratorHook, payload any, fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := h.Wrap(ctx, payload, func(ctx context.Context) (any, error) {
			return nil, fn(ctx)
		})
		return err
	}
}
