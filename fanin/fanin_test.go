package fanin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chanOf(name string, n int, start int) <-chan ScopedItem {
	ch := make(chan ScopedItem, n)
	for i := 0; i < n; i++ {
		ch <- ScopedItem{SourceName: name, Cursor: fmt.Sprintf("%d", start+i), Value: start + i}
	}
	close(ch)
	return ch
}

func TestFanInRoundRobin(t *testing.T) {
	f := NewFanIn([]Source{
		{Name: "a", Items: chanOf("a", 4, 0)},
		{Name: "b", Items: chanOf("b", 2, 4)},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var seen []int
	for i := 0; i < 6; i++ {
		item, err := f.Next(ctx)
		require.NoError(t, err)
		seen = append(seen, item.Value.(int))
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, seen)
}

func TestPriorityFanInSteadyStateShare(t *testing.T) {
	f := NewPriorityFanIn([]Source{
		{Name: "a", Priority: 1, Items: chanOf("a", 100, 0)},
		{Name: "b", Priority: 2, Items: chanOf("b", 100, 0)},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	countA, countB := 0, 0
	for i := 0; i < 75; i++ {
		item, err := f.Next(ctx)
		require.NoError(t, err)
		if item.SourceName == "a" {
			countA++
		} else {
			countB++
		}
	}
	assert.InDelta(t, 25, countA, 3)
	assert.InDelta(t, 50, countB, 3)
}
