package storeadmin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/cursor"
	dbtest "github.com/khulnasoft/DataLineup/internal/testing"
	"github.com/khulnasoft/DataLineup/manager"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(dbtest.CreateTestDB(t))
}

func TestCreateQueueThenListUnassigned(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateQueue(ctx, manager.QueueItemWithState{Name: "queue-a"}))
	require.NoError(t, s.CreateQueue(ctx, manager.QueueItemWithState{Name: "queue-b"}))

	items, err := s.ListUnassignedBefore(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestAssignQueuesRemovesThemFromUnassigned(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateQueue(ctx, manager.QueueItemWithState{Name: "queue-a"}))

	require.NoError(t, s.AssignQueues(ctx, "worker-1", []string{"queue-a"}, time.Now()))

	unassigned, err := s.ListUnassignedBefore(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, unassigned)

	assigned, err := s.ListAssignedTo(ctx, "worker-1")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "queue-a", assigned[0].Name)
}

func TestAssignQueuesStaleEnoughReclaimedAsUnassigned(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateQueue(ctx, manager.QueueItemWithState{Name: "queue-a"}))
	require.NoError(t, s.AssignQueues(ctx, "worker-1", []string{"queue-a"}, time.Now().Add(-time.Hour)))

	reclaimable, err := s.ListUnassignedBefore(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, reclaimable, 1)
	assert.Equal(t, "queue-a", reclaimable[0].Name)
}

func TestPushThenFetchCursorStates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateJob(ctx, "job-a"))

	require.NoError(t, s.PushJobStates(ctx, map[string]cursor.State{
		"job-a": {V: 1, A: "5"},
	}))

	states, err := s.FetchCursorStates(ctx, []string{"job-a", "job-b"})
	require.NoError(t, err)
	assert.Equal(t, cursor.State{V: 1, A: "5"}, states["job-a"])
	_, ok := states["job-b"]
	assert.False(t, ok)
}

func TestGetLastJobReturnsMostRecentlyUpdated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateJob(ctx, "job-a"))
	require.NoError(t, s.PushJobStates(ctx, map[string]cursor.State{"job-b": {V: 1, A: "1"}}))

	name, ok, err := s.GetLastJob(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "job-b", name)
}

func TestGetLastJobNoRowsReturnsFalse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, ok, err := s.GetLastJob(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordTopologyPatchIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.RecordTopologyPatch(ctx, "DatalineupJob", "fulfill-orders", []byte(`{"a":1}`)))
	require.NoError(t, s.RecordTopologyPatch(ctx, "DatalineupJob", "fulfill-orders", []byte(`{"a":2}`)))

	var count int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM topology_patches").Scan(&count))
	assert.Equal(t, 2, count)
}
