package storeadmin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/topology"
)

const sampleTopology = `
apiVersion: datalineup.khulnasoft.io/v1alpha1
kind: DatalineupInventory
metadata:
  name: orders
spec:
  type: memory-inventory
  version: "1.0.0"
---
apiVersion: datalineup.khulnasoft.io/v1alpha1
kind: DatalineupTopic
metadata:
  name: fulfilled
spec:
  type: memory-topic
  version: "1.0.0"
---
apiVersion: datalineup.khulnasoft.io/v1alpha1
kind: DatalineupJob
metadata:
  name: fulfill-orders
spec:
  input: orders
  output:
    out: [fulfilled]
  executor: inline
  pipeline:
    info: fulfill
`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	topo, err := topology.Parse([]byte(sampleTopology))
	require.NoError(t, err)
	store := newTestStore(t)
	c, err := NewClient(context.Background(), store, topo)
	require.NoError(t, err)
	return c
}

func TestLockAssignsCompiledQueuesToFirstCaller(t *testing.T) {
	c := newTestClient(t)
	resp, err := c.Lock(context.Background(), "worker-1")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "fulfill-orders", resp.Items[0].Name)
}

func TestLockDoesNotReassignToADifferentWorkerWithinLease(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.Lock(ctx, "worker-1")
	require.NoError(t, err)

	resp, err := c.Lock(ctx, "worker-2")
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestLockReclaimsExpiredLease(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	base := time.Now()
	c.Now = func() time.Time { return base }

	_, err := c.Lock(ctx, "worker-1")
	require.NoError(t, err)

	c.Now = func() time.Time { return base.Add(c.LeaseTTL + time.Minute) }
	resp, err := c.Lock(ctx, "worker-2")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "fulfill-orders", resp.Items[0].Name)
}

func TestLockOverlaysPersistedCursorState(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.PushJobStates(ctx, map[string]cursor.State{
		"fulfill-orders": {V: 1, A: "7"},
	}))

	resp, err := c.Lock(ctx, "worker-1")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, cursor.State{V: 1, A: "7"}, resp.Items[0].State.Cursor)
}

func TestReloadAddsNewlyDefinedQueuesWithoutDisturbingAssignments(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.Lock(ctx, "worker-1")
	require.NoError(t, err)

	expanded := sampleTopology + `
---
apiVersion: datalineup.khulnasoft.io/v1alpha1
kind: DatalineupJob
metadata:
  name: second-job
spec:
  input: orders
  output: {}
  executor: inline
  pipeline:
    info: second
`
	topo, err := topology.Parse([]byte(expanded))
	require.NoError(t, err)
	require.NoError(t, c.Reload(ctx, topo))

	resp, err := c.Lock(ctx, "worker-1")
	require.NoError(t, err)
	names := make([]string, len(resp.Items))
	for i, item := range resp.Items {
		names[i] = item.Name
	}
	assert.ElementsMatch(t, []string{"fulfill-orders", "second-job"}, names)
}

func TestListTopicsAndInventoriesReflectTopology(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	topics, err := c.ListTopics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "fulfilled", topics[0].Name)

	inventories, err := c.ListInventories(ctx)
	require.NoError(t, err)
	require.Len(t, inventories, 1)
	assert.Equal(t, "orders", inventories[0].Name)
}
