package resources

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/errors"
)

func TestFixedWindowLimiter(t *testing.T) {
	now := time.Now()
	lim := NewFixedWindowLimiter(2, time.Minute)

	require.NoError(t, lim.Allow(now))
	require.NoError(t, lim.Allow(now))

	err := lim.Allow(now)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTransientIO))

	// past the window, allowed again
	require.NoError(t, lim.Allow(now.Add(2*time.Minute)))
}

func TestMovingWindowLimiter(t *testing.T) {
	lim := NewMovingWindowLimiter(1, 1)
	now := time.Now()

	require.NoError(t, lim.Allow(now))
	assert.Error(t, lim.Allow(now))
}

func TestMultiLimiterANDsChildren(t *testing.T) {
	now := time.Now()
	strict := NewFixedWindowLimiter(0, time.Minute)
	lenient := NewFixedWindowLimiter(100, time.Minute)

	combined := NewMultiLimiter(lenient, strict)
	assert.Error(t, combined.Allow(now))

	// zero limiters always allow
	assert.NoError(t, NewMultiLimiter().Allow(now))
}

func TestPoolAcquireReleaseLRU(t *testing.T) {
	pool := NewPool[string]("db_conn")
	pool.Add("a", "conn-a", 0, nil)
	pool.Add("b", "conn-b", 0, nil)

	ctx := context.Background()
	lease1, val1, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, val1)

	lease2, val2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, val1, val2)

	require.NoError(t, pool.Release(lease1))
	require.NoError(t, pool.Release(lease2))

	// releasing again should fail: lease no longer active
	err = pool.Release(lease1)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindFatal))
}

func TestPoolAcquireBlocksUntilRelease(t *testing.T) {
	pool := NewPool[int]("slot")
	pool.Add("only", 1, 0, nil)

	ctx := context.Background()
	lease, _, err := pool.Acquire(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_, _, err := pool.Acquire(ctx)
		require.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Acquire should block while the only instance is busy")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, pool.Release(lease))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Acquire should unblock after Release")
	}
}

func TestPoolAcquireNoResourcesRegistered(t *testing.T) {
	pool := NewPool[int]("ghost")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := pool.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindResourceExhausted))
}

func TestPoolDelayAfterRelease(t *testing.T) {
	pool := NewPool[int]("slow")
	pool.Add("only", 1, 50*time.Millisecond, nil)

	ctx := context.Background()
	lease, _, err := pool.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, pool.Release(lease))

	shortCtx, cancel := context.WithTimeout(ctx, 5*time.Millisecond)
	defer cancel()
	_, _, err = pool.Acquire(shortCtx)
	require.Error(t, err, "instance should still be in its delay-after-release window")
}

func TestManagerAcquireRelease(t *testing.T) {
	mgr := NewManager()
	mgr.Add(ProvidedResource{Type: "http_session", Name: "default", Value: "session"})
	assert.Equal(t, 1, mgr.Count("http_session"))

	ctx := context.Background()
	lease, val, err := mgr.Acquire(ctx, "http_session")
	require.NoError(t, err)
	assert.Equal(t, "session", val)
	require.NoError(t, mgr.Release(lease))
}
