package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/topic"
)

func TestExecutableQueueRunYieldsOnePerItem(t *testing.T) {
	items := make(chan topic.Item, 2)
	items <- topic.Item{ID: "a"}
	items <- topic.Item{ID: "b"}
	close(items)

	q := NewExecutableQueue("job-a", PipelineInfo{Name: "pipeline"}, nil, items)
	ctx := context.Background()
	out, err := q.Run(ctx)
	require.NoError(t, err)

	var ids []string
	for msg := range out {
		ids = append(ids, msg.Item.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestContextCloseExactlyOnce(t *testing.T) {
	c := &ExecutingContext{}
	var closes int
	c.OnClose(func() { closes++ })
	c.Close()
	c.Close()
	assert.Equal(t, 1, closes)
}

func TestFullContextCommitOrderIsLIFO(t *testing.T) {
	c := &FullContext{}
	var order []int
	c.OnCommit(func() { order = append(order, 1) })
	c.OnCommit(func() { order = append(order, 2) })
	c.Close()
	assert.Equal(t, []int{2, 1}, order)
}
