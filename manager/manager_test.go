package manager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/cursor"
)

func TestFakeClientLockReturnsConfiguredResponse(t *testing.T) {
	resp := LockResponse{Items: []QueueItemWithState{{Name: "job-a"}}}
	c := NewFakeClient(resp)

	got, err := c.Lock(context.Background(), "worker-1")
	require.NoError(t, err)
	assert.Equal(t, "job-a", got.Items[0].Name)
	assert.Equal(t, []string{"worker-1"}, c.LockCalls)
}

func TestFakeClientPushThenFetchCursorStates(t *testing.T) {
	c := NewFakeClient(LockResponse{})
	state := cursor.State{V: 1, A: "5", P: []string{"7"}}

	require.NoError(t, c.PushJobStates(context.Background(), map[string]cursor.State{"job-a": state}))

	fetched, err := c.FetchCursorStates(context.Background(), []string{"job-a", "job-missing"})
	require.NoError(t, err)
	assert.Equal(t, state, fetched["job-a"])
	_, ok := fetched["job-missing"]
	assert.False(t, ok)
}
