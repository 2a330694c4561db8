package hooks

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventHookEmitsAllHandlersConcurrently(t *testing.T) {
	h := NewEventHook(nil)
	var count int32
	for i := 0; i < 5; i++ {
		h.Register(func(ctx context.Context, payload any) {
			atomic.AddInt32(&count, 1)
		})
	}
	h.Emit(context.Background(), "message_polled")
	assert.EqualValues(t, 5, count)
}

func TestEventHookSurvivesPanickingHandler(t *testing.T) {
	h := NewEventHook(nil)
	h.Register(func(ctx context.Context, payload any) { panic("boom") })
	var ran bool
	h.Register(func(ctx context.Context, payload any) { ran = true })

	assert.NotPanics(t, func() { h.Emit(context.Background(), nil) })
	assert.True(t, ran)
}

func TestGeneratorHookLIFOUnwind(t *testing.T) {
	h := NewGeneratorHook(nil)
	var order []string

	h.Register(
		func(ctx context.Context, payload any) any { order = append(order, "before-1"); return 1 },
		func(ctx context.Context, state, result any, err error) { order = append(order, "after-1") },
	)
	h.Register(
		func(ctx context.Context, payload any) any { order = append(order, "before-2"); return 2 },
		func(ctx context.Context, state, result any, err error) { order = append(order, "after-2") },
	)

	_, err := h.Wrap(context.Background(), nil, func(ctx context.Context) (any, error) {
		order = append(order, "body")
		return "result", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"before-1", "before-2", "body", "after-2", "after-1"}, order)
}

func TestScopeWrapsFunctionAsHook(t *testing.T) {
	h := NewGeneratorHook(nil)
	var afterErr error
	h.Register(
		func(ctx context.Context, payload any) any { return nil },
		func(ctx context.Context, state, result any, err error) { afterErr = err },
	)

	wrapped := Scope(h, "message_executed", func(ctx context.Context) error {
		return assertErr
	})
	err := wrapped(context.Background())
	assert.Equal(t, assertErr, err)
	assert.Equal(t, assertErr, afterErr)
}

var assertErr = assertError("pipeline raised")

type assertError string

func (e assertError) Error() string { return string(e) }
