package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/queue"
	"github.com/khulnasoft/DataLineup/resources"
	"github.com/khulnasoft/DataLineup/topic"
)

type countingExecutor struct {
	concurrency int32
	maxObserved int32
	current     int32
	delay       time.Duration
	alwaysFail  error
}

func (e *countingExecutor) Concurrency() int { return int(e.concurrency) }

func (e *countingExecutor) Execute(ctx context.Context, msg *queue.ExecutableMessage) (PipelineResults, error) {
	n := atomic.AddInt32(&e.current, 1)
	for {
		max := atomic.LoadInt32(&e.maxObserved)
		if n <= max || atomic.CompareAndSwapInt32(&e.maxObserved, max, n) {
			break
		}
	}
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	atomic.AddInt32(&e.current, -1)
	if e.alwaysFail != nil {
		return PipelineResults{}, e.alwaysFail
	}
	return PipelineResults{Outputs: map[string][]topic.Message{"out": {{ID: msg.Item.ID}}}}, nil
}

func newPipeline(t *testing.T, exec RemoteExecutor, submitConcurrency int, items []topic.Item) *Pipeline {
	t.Helper()
	ch := make(chan topic.Item, len(items))
	for _, it := range items {
		ch <- it
	}
	close(ch)

	q := queue.NewExecutableQueue("job", queue.PipelineInfo{Name: "pipeline"}, nil, ch)
	return &Pipeline{
		Queue:     q,
		Resources: resources.NewManager(),
		Cursors:   cursor.NewStore(),
		JobName:   "job",
		Executor:  exec,
		Poll:      NewStage("poll", 1),
		Schedule:  NewStage("schedule", 0),
		Submit:    NewStage("submit", submitConcurrency),
		Publish:   NewStage("publish", 0),
		Hooks:     NewHookSet(),
	}
}

func TestPipelineRespectsExecutorConcurrency(t *testing.T) {
	items := make([]topic.Item, 10)
	for i := range items {
		items[i] = topic.Item{ID: string(rune('a' + i)), Cursor: string(rune('a' + i))}
	}
	exec := &countingExecutor{concurrency: 2, delay: 5 * time.Millisecond}
	p := newPipeline(t, exec, 2, items)

	require.NoError(t, p.Run(context.Background()))
	assert.LessOrEqual(t, int(exec.maxObserved), 2, "invariant 3: at most concurrency process_message calls in flight")
}

func TestPipelineErrorRoutingRepublishWithCap(t *testing.T) {
	exec := &countingExecutor{concurrency: 1, alwaysFail: assertErr("pipeline raised")}
	p := newPipeline(t, exec, 1, []topic.Item{{ID: "x", Cursor: "x"}})
	p.Handlers = ErrorHandlers{
		"error:pipeline": {
			{Channel: "error-out", TypeName: "", Republish: &Republish{Channel: "retry", MaxRetry: 1}, SetHandled: true},
		},
	}

	handled, hr := p.routeError(context.Background(), firstMessage(), exec.alwaysFail)
	require.True(t, handled)
	require.NotNil(t, hr)
	assert.Contains(t, hr.Results.Outputs, "error-out")
	assert.Contains(t, hr.Results.Outputs, "retry")

	// second failure on the retried copy: metadata already carries
	// retries=1, equal to MaxRetry, so no further republish.
	retried := firstMessage()
	retried.Item.Metadata = map[string]map[string]any{"retry": {"retries": 1}}
	handled2, hr2 := p.routeError(context.Background(), retried, exec.alwaysFail)
	require.True(t, handled2)
	assert.Contains(t, hr2.Results.Outputs, "error-out")
	assert.NotContains(t, hr2.Results.Outputs, "retry")
}

// TestPipelineErrorRoutingWildcardChannelFallback covers the channel-level
// fallback: no handler is registered under error:pipeline at all, only
// under the broader error:* channel, and resolution must still find it.
func TestPipelineErrorRoutingWildcardChannelFallback(t *testing.T) {
	exec := &countingExecutor{concurrency: 1, alwaysFail: assertErr("pipeline raised")}
	p := newPipeline(t, exec, 1, []topic.Item{{ID: "x", Cursor: "x"}})
	p.Handlers = ErrorHandlers{
		"error:*": {
			{Channel: "error-out", TypeName: "", SetHandled: true},
		},
	}

	handled, hr := p.routeError(context.Background(), firstMessage(), exec.alwaysFail)
	require.True(t, handled)
	require.NotNil(t, hr)
	assert.Contains(t, hr.Results.Outputs, "error-out")
}

func firstMessage() *queue.ExecutableMessage {
	return &queue.ExecutableMessage{
		Item:      topic.Item{ID: "x", Cursor: "x"},
		Pipeline:  queue.PipelineInfo{Name: "pipeline"},
		Executing: &queue.ExecutingContext{},
		Full:      &queue.FullContext{},
	}
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
