package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/queue"
	"github.com/khulnasoft/DataLineup/resources"
	"github.com/khulnasoft/DataLineup/topic"
	"github.com/khulnasoft/DataLineup/topic/memory"
)

// outputExecutor hands back a fixed output message on the given channel
// for every item it's asked to execute.
type outputExecutor struct {
	channel string
}

func (e *outputExecutor) Concurrency() int { return 1 }

func (e *outputExecutor) Execute(ctx context.Context, msg *queue.ExecutableMessage) (PipelineResults, error) {
	return PipelineResults{Outputs: map[string][]topic.Message{e.channel: {{ID: msg.Item.ID}}}}, nil
}

type recordedPublish struct {
	mu     sync.Mutex
	events []PublishEvent
}

func (r *recordedPublish) record(ctx context.Context, payload any) {
	ev, ok := payload.(PublishEvent)
	if !ok {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordedPublish) snapshot() []PublishEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PublishEvent, len(r.events))
	copy(out, r.events)
	return out
}

// TestPublishEmitsExactlyOneSuccessOrFailedEvent covers the "exactly
// one of message_published.success/.failed fires" property for the
// success side: one item resolves to a real driver and succeeds,
// producing exactly one event. TestPublishFailsForUnresolvedTopic
// covers the failed side.
func TestPublishEmitsExactlyOneSuccessOrFailedEvent(t *testing.T) {
	good := memory.NewTopic(4)
	exec := &outputExecutor{channel: "out"}

	outputs := map[string][]string{"out": {"good-topic"}}
	q := queue.NewExecutableQueue("job", queue.PipelineInfo{Name: "pipeline"}, outputs, itemsChan(
		topic.Item{ID: "ok", Cursor: "ok"},
	))

	p := &Pipeline{
		Queue:     q,
		Resources: resources.NewManager(),
		Cursors:   cursor.NewStore(),
		JobName:   "job",
		Executor:  exec,
		Topics:    map[string]topic.Driver{"good-topic": good},
		Poll:      NewStage("poll", 1),
		Schedule:  NewStage("schedule", 0),
		Submit:    NewStage("submit", 1),
		Publish:   NewStage("publish", 0),
		Hooks:     NewHookSet(),
	}

	rec := &recordedPublish{}
	p.Hooks.MessagePublished.Register(rec.record)

	require.NoError(t, p.Run(context.Background()))

	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, 1, good.Len())
}

func TestPublishFailsForUnresolvedTopic(t *testing.T) {
	exec := &outputExecutor{channel: "out"}
	outputs := map[string][]string{"out": {"missing-topic"}}
	q := queue.NewExecutableQueue("job", queue.PipelineInfo{Name: "pipeline"}, outputs, itemsChan(
		topic.Item{ID: "bad", Cursor: "bad"},
	))

	p := &Pipeline{
		Queue:     q,
		Resources: resources.NewManager(),
		Cursors:   cursor.NewStore(),
		JobName:   "job",
		Executor:  exec,
		Topics:    map[string]topic.Driver{},
		Poll:      NewStage("poll", 1),
		Schedule:  NewStage("schedule", 0),
		Submit:    NewStage("submit", 1),
		Publish:   NewStage("publish", 0),
		Hooks:     NewHookSet(),
	}

	rec := &recordedPublish{}
	p.Hooks.MessagePublished.Register(rec.record)

	require.NoError(t, p.Run(context.Background()))

	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Error(t, events[0].Err)
}

// TestSubmitParksOnFullOutputTopic reproduces the backpressure scenario:
// executor concurrency 1, an output topic sized 1. Once the first
// published item fills the topic, the next item's publish must park
// the queue's gate (Locked()==true) until a slot frees, and Submit must not pull a new item from the executor while
// parked.
func TestSubmitParksOnFullOutputTopic(t *testing.T) {
	out := memory.NewTopic(1)
	exec := &outputExecutor{channel: "out"}
	outputs := map[string][]string{"out": {"bounded-topic"}}

	items := itemsChan(
		topic.Item{ID: "a", Cursor: "a"},
		topic.Item{ID: "b", Cursor: "b"},
		topic.Item{ID: "c", Cursor: "c"},
	)
	q := queue.NewExecutableQueue("job", queue.PipelineInfo{Name: "pipeline"}, outputs, items)

	p := &Pipeline{
		Queue:     q,
		Resources: resources.NewManager(),
		Cursors:   cursor.NewStore(),
		JobName:   "job",
		Executor:  exec,
		Topics:    map[string]topic.Driver{"bounded-topic": out},
		Poll:      NewStage("poll", 1),
		Schedule:  NewStage("schedule", 0),
		Submit:    NewStage("submit", 1),
		Publish:   NewStage("publish", 0),
		Hooks:     NewHookSet(),
	}

	// wait for the gate to lock (some publish parked on the full
	// buffer), then start draining so every parked publish eventually
	// unblocks and the pipeline can finish.
	lockedCh := make(chan struct{})
	go func() {
		for !q.Gate.Locked() {
			time.Sleep(time.Millisecond)
		}
		close(lockedCh)
	}()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-lockedCh
		ch, _ := out.Run(context.Background())
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
			case <-time.After(200 * time.Millisecond):
				return
			}
		}
	}()

	require.NoError(t, p.Run(context.Background()))

	select {
	case <-lockedCh:
	case <-time.After(2 * time.Second):
		t.Fatal("gate never locked: backpressure was not applied")
	}
	<-drained
	assert.False(t, q.Gate.Locked(), "gate must be unlocked once draining unparks every parked publish")
}

func itemsChan(items ...topic.Item) <-chan topic.Item {
	ch := make(chan topic.Item, len(items))
	for _, it := range items {
		ch <- it
	}
	close(ch)
	return ch
}
