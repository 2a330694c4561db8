package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/topic"
)

func TestTopicPublishThenRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topic.ndjson")
	top := NewTopic(path)
	ctx := context.Background()

	require.NoError(t, top.Open(ctx))
	defer top.Close()

	ok, err := top.Publish(ctx, topic.Message{ID: "1", Args: map[string]any{"n": float64(1)}}, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ch, err := top.Run(ctx)
	require.NoError(t, err)
	msg := <-ch
	assert.Equal(t, "1", msg.Message.ID)
}

func TestInventoryIterateResumesFromByteOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.ndjson")
	writeItemRecords(t, path, []topic.Item{{ID: "a"}, {ID: "b"}})

	inv := NewInventory(path)
	ctx := context.Background()
	require.NoError(t, inv.Open(ctx))

	ch, err := inv.Iterate(ctx, "")
	require.NoError(t, err)
	first := <-ch
	assert.Equal(t, "a", first.ID)

	ch, err = inv.Iterate(ctx, first.Cursor)
	require.NoError(t, err)
	var rest []string
	for item := range ch {
		rest = append(rest, item.ID)
	}
	assert.Equal(t, []string{"b"}, rest)
}

func writeItemRecords(t *testing.T, path string, items []topic.Item) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	for _, item := range items {
		b, err := json.Marshal(itemRecord{Item: item})
		require.NoError(t, err)
		_, err = f.Write(append(b, '\n'))
		require.NoError(t, err)
	}
}
