package work

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/executor"
	"github.com/khulnasoft/DataLineup/manager"
	"github.com/khulnasoft/DataLineup/queue"
	"github.com/khulnasoft/DataLineup/registry"
	"github.com/khulnasoft/DataLineup/resources"
	"github.com/khulnasoft/DataLineup/topic"
	"github.com/khulnasoft/DataLineup/topic/memory"
)

type noopExecutor struct{}

func (noopExecutor) Concurrency() int { return 1 }
func (noopExecutor) Execute(ctx context.Context, msg *queue.ExecutableMessage) (executor.PipelineResults, error) {
	return executor.PipelineResults{}, nil
}

func newTestSyncer(t *testing.T, client manager.Client) *Syncer {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register("inventory", "memory-inventory", "1.0.0", func(opts map[string]any) (any, error) {
		return memory.NewInventory(nil), nil
	}))

	log := zap.NewNop().Sugar()
	s := New(client, "worker-1", reg, resources.NewManager(), cursor.NewStore(), log)
	s.BuildExecutor = func(def manager.ComponentDefinition) (executor.RemoteExecutor, error) {
		return noopExecutor{}, nil
	}
	return s
}

func TestSyncerAddsQueueFromLockResponse(t *testing.T) {
	resp := manager.LockResponse{
		Items: []manager.QueueItemWithState{
			{
				Name:     "queue-a",
				Input:    manager.ComponentDefinition{Name: "inv-a", Type: "memory-inventory", Version: "1.0.0"},
				Executor: "exec-a",
			},
		},
		Executors: []manager.ComponentDefinition{{Name: "exec-a", Type: "inline"}},
	}
	client := manager.NewFakeClient(resp)
	s := newTestSyncer(t, client)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Sync(ctx))
	assert.Equal(t, []string{"queue-a"}, s.QueueNames())
}

func TestSyncerDropsQueueNoLongerAssigned(t *testing.T) {
	resp := manager.LockResponse{
		Items: []manager.QueueItemWithState{
			{
				Name:     "queue-a",
				Input:    manager.ComponentDefinition{Name: "inv-a", Type: "memory-inventory", Version: "1.0.0"},
				Executor: "exec-a",
			},
		},
		Executors: []manager.ComponentDefinition{{Name: "exec-a", Type: "inline"}},
	}
	client := manager.NewFakeClient(resp)
	s := newTestSyncer(t, client)
	s.DrainGrace = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, s.Sync(ctx))
	require.Equal(t, []string{"queue-a"}, s.QueueNames())

	client.Response = manager.LockResponse{}
	require.NoError(t, s.Sync(ctx))
	assert.Empty(t, s.QueueNames())
}

func TestSyncerSkipsQueueWithUnresolvableInventory(t *testing.T) {
	resp := manager.LockResponse{
		Items: []manager.QueueItemWithState{
			{Name: "queue-b", Input: manager.ComponentDefinition{Type: "no-such-inventory"}, Executor: "exec-a"},
		},
		Executors: []manager.ComponentDefinition{{Name: "exec-a", Type: "inline"}},
	}
	client := manager.NewFakeClient(resp)
	s := newTestSyncer(t, client)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Sync(ctx))
	assert.Empty(t, s.QueueNames())
}

func TestSyncerFlushCursorsPushesStateForRunningQueues(t *testing.T) {
	resp := manager.LockResponse{
		Items: []manager.QueueItemWithState{
			{
				Name:     "queue-a",
				Input:    manager.ComponentDefinition{Name: "inv-a", Type: "memory-inventory", Version: "1.0.0"},
				Executor: "exec-a",
			},
		},
		Executors: []manager.ComponentDefinition{{Name: "exec-a", Type: "inline"}},
	}
	client := manager.NewFakeClient(resp)
	s := newTestSyncer(t, client)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Sync(ctx))
	require.Equal(t, []string{"queue-a"}, s.QueueNames())

	s.Cursors.Start("queue-a", "item-1")
	s.Cursors.Complete("queue-a", "item-1", true)

	s.flushCursors(ctx)

	pushed, ok := client.PushedStates["queue-a"]
	require.True(t, ok)
	assert.Equal(t, "item-1", pushed.A)
}

func TestSyncerFlushCursorsNoopWhenNothingRunning(t *testing.T) {
	client := manager.NewFakeClient(manager.LockResponse{})
	s := newTestSyncer(t, client)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.flushCursors(ctx)
	assert.Empty(t, client.PushedStates)
}

var _ topic.Inventory = (*memory.Inventory)(nil)
