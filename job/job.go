// Package job binds an inventory to a job's cursor-state and queue
// metadata, turning a raw Iterate stream into the item channel an
// ExecutableQueue polls from, skipping anything the cursor store
// already marks as completed (resume-without-replay).
package job

import (
	"context"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/queue"
	"github.com/khulnasoft/DataLineup/topic"
)

// Job is one runnable queue assignment: an inventory source, this
// worker's shared cursor store, and the pipeline/output metadata the
// executor needs per item.
type Job struct {
	Name      string
	Inventory topic.Inventory
	Cursors   *cursor.Store
	Pipeline  queue.PipelineInfo
	Outputs   map[string][]string
}

// New returns a Job ready to be started with Run.
func New(name string, inv topic.Inventory, cursors *cursor.Store, pipeline queue.PipelineInfo, outputs map[string][]string) *Job {
	return &Job{Name: name, Inventory: inv, Cursors: cursors, Pipeline: pipeline, Outputs: outputs}
}

// Run opens the inventory at its last-known resumable cursor, filters
// out anything already completed, and returns an ExecutableQueue
// streaming the rest.
func (j *Job) Run(ctx context.Context) (*queue.ExecutableQueue, error) {
	if err := j.Inventory.Open(ctx); err != nil {
		return nil, err
	}

	state := j.Cursors.Flush(j.Name)
	items, err := j.Inventory.Iterate(ctx, state.A)
	if err != nil {
		return nil, err
	}

	filtered := make(chan topic.Item)
	go func() {
		defer close(filtered)
		for {
			select {
			case item, ok := <-items:
				if !ok {
					return
				}
				if j.Cursors.ShouldSkip(j.Name, item.Cursor) {
					if item.Release != nil {
						item.Release()
					}
					continue
				}
				select {
				case filtered <- item:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return queue.NewExecutableQueue(j.Name, j.Pipeline, j.Outputs, filtered), nil
}

// Close releases the underlying inventory.
func (j *Job) Close() error {
	return j.Inventory.Close()
}
