// Package queue composes a job's inventory-wrapped source with its
// output channel map and parker gates into the runtime object the
// executor pipeline polls from.
package queue

import (
	"context"
	"sync"

	"github.com/khulnasoft/DataLineup/parkers"
	"github.com/khulnasoft/DataLineup/topic"
)

// PipelineInfo names the user pipeline a queue's items are routed
// through, and the resource types it requires before execution.
type PipelineInfo struct {
	Name              string
	RequiredResources []string
}

// ExecutingContext is released once the pipeline's process_message call
// completes (success or failure), independent of whether the item's
// cursor has been committed yet.
type ExecutingContext struct {
	mu       sync.Mutex
	released bool
	onClose  []func()
}

// OnClose registers a cleanup to run exactly once when Close is called.
func (c *ExecutingContext) OnClose(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = append(c.onClose, fn)
}

// Close releases the executing context. Safe to call more than once;
// only the first call runs the registered cleanups.
func (c *ExecutingContext) Close() {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.released = true
	cleanups := c.onClose
	c.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// FullContext is released on cursor commit, after every output has been
// published and all resource leases released. Closing it is what
// triggers cursor-state completion.
type FullContext struct {
	ExecutingContext
	onCommit []func()
}

// OnCommit registers a cleanup to run when the full context closes,
// i.e. at cursor commit time.
func (c *FullContext) OnCommit(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCommit = append(c.onCommit, fn)
}

func (c *FullContext) Close() {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return
	}
	c.released = true
	cleanups := c.onCommit
	c.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// ExecutableMessage is one inventory item enriched with everything the
// executor pipeline needs to run it: pipeline info, the item itself,
// and its two scoped contexts.
type ExecutableMessage struct {
	Item      topic.Item
	Pipeline  PipelineInfo
	Outputs   map[string][]string // output channel -> topic names
	Executing *ExecutingContext
	Full      *FullContext
}

// ExecutableQueue streams ExecutableMessages from a job's source,
// gated by a Parkers.Gate any stage can use to express backpressure.
type ExecutableQueue struct {
	Name     string
	Pipeline PipelineInfo
	Outputs  map[string][]string
	Gate     *parkers.Gate

	items <-chan topic.Item
}

// NewExecutableQueue wraps items (typically an Inventory.Iterate or
// FanIn.Next stream adapted to a channel) with pipeline metadata.
func NewExecutableQueue(name string, pipeline PipelineInfo, outputs map[string][]string, items <-chan topic.Item) *ExecutableQueue {
	return &ExecutableQueue{
		Name:     name,
		Pipeline: pipeline,
		Outputs:  outputs,
		Gate:     parkers.NewGate(),
		items:    items,
	}
}

// Run yields one ExecutableMessage per inventory item until the source
// is exhausted or ctx is done.
func (q *ExecutableQueue) Run(ctx context.Context) (<-chan *ExecutableMessage, error) {
	out := make(chan *ExecutableMessage)
	go func() {
		defer close(out)
		for {
			select {
			case item, ok := <-q.items:
				if !ok {
					return
				}
				msg := &ExecutableMessage{
					Item:      item,
					Pipeline:  q.Pipeline,
					Outputs:   q.Outputs,
					Executing: &ExecutingContext{},
					Full:      &FullContext{},
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
