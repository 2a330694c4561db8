// Package executor drives the six-stage pipeline (poll, schedule,
// submit, execute, publish, commit) that turns inventory items into
// published outputs, under per-stage concurrency bounds and hook-wrapped
// transitions.
package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/hooks"
	"github.com/khulnasoft/DataLineup/logger"
	"github.com/khulnasoft/DataLineup/queue"
	"github.com/khulnasoft/DataLineup/resources"
	"github.com/khulnasoft/DataLineup/topic"
)

// PipelineEvent is one side-effect a RemoteExecutor hands back alongside
// its outputs, applied during the commit stage.
type PipelineEvent interface{ isPipelineEvent() }

// CursorStateUpdated carries an explicit cursor contribution the
// pipeline computed itself, distinct from the item's own source cursor.
type CursorStateUpdated struct{ Cursor string }

func (CursorStateUpdated) isPipelineEvent() {}

// StopLoopEvent is accepted in PipelineResults.Events, but the pipeline
// does not act on it: polling continues until the queue's source is
// exhausted or ctx is cancelled.
type StopLoopEvent struct{}

func (StopLoopEvent) isPipelineEvent() {}

// PipelineResults is what a RemoteExecutor returns for one message.
type PipelineResults struct {
	Outputs map[string][]topic.Message // output channel -> messages
	Leases  []*resources.Lease         // resources to release after commit
	Events  []PipelineEvent
}

// HandledError wraps PipelineResults produced after an error was routed
// to a matching error handler with set_handled=true: the caller sees
// success despite the underlying raise.
type HandledError struct {
	Results PipelineResults
	Cause   error
}

// RemoteExecutor is the user-pipeline boundary: a plain interface
// satisfiable by an in-process adapter today or a network client later,
// with no gRPC wiring (see DESIGN.md).
type RemoteExecutor interface {
	Execute(ctx context.Context, msg *queue.ExecutableMessage) (PipelineResults, error)
	Concurrency() int
}

// Func adapts a plain function to a fixed-concurrency RemoteExecutor,
// the in-process analogue of http.HandlerFunc for user pipeline code
// that doesn't need its own type.
type Func struct {
	Run        func(ctx context.Context, msg *queue.ExecutableMessage) (PipelineResults, error)
	Concurrent int
}

func (f Func) Execute(ctx context.Context, msg *queue.ExecutableMessage) (PipelineResults, error) {
	return f.Run(ctx, msg)
}

func (f Func) Concurrency() int {
	if f.Concurrent <= 0 {
		return 1
	}
	return f.Concurrent
}

// ErrorHandler is one declared `error:<channel>:<TypeName>` (or
// `error:*`) resolution target in a queue's output map.
type ErrorHandler struct {
	Channel    string
	TypeName   string // "" matches error:* for the channel
	Publish    []string
	Republish  *Republish
	SetHandled bool // false (the zero value) re-raises the error after the handler's outputs are published
}

// Republish re-sends the original message on Channel, capped at MaxRetry
// attempts, tracked via metadata["retries"].
type Republish struct {
	Channel  string
	MaxRetry int
}

// Stage bounds the per-stage concurrency of one executor pipeline.
type Stage struct {
	name string
	sem  chan struct{} // nil means unbounded (gated by parker instead)
}

// NewStage returns a stage with the given concurrency bound (0 means
// unbounded, i.e. gated only by a parker elsewhere).
func NewStage(name string, concurrency int) *Stage {
	s := &Stage{name: name}
	if concurrency > 0 {
		s.sem = make(chan struct{}, concurrency)
	}
	return s
}

func (s *Stage) acquire(ctx context.Context) error {
	if s.sem == nil {
		return nil
	}
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stage) release() {
	if s.sem != nil {
		<-s.sem
	}
}

// Pipeline runs the full poll->schedule->submit->execute->publish->commit
// chain for one queue against one RemoteExecutor.
type Pipeline struct {
	Queue     *queue.ExecutableQueue
	Resources *resources.Manager
	Cursors   *cursor.Store
	JobName   string
	Executor  RemoteExecutor

	// Topics resolves a declared output topic name (as it appears in
	// msg.Outputs[channel]) to the driver Publish is actually called
	// against. A name with no entry here is treated as unresolvable:
	// publishing to it always fails.
	Topics map[string]topic.Driver

	Poll     *Stage
	Schedule *Stage
	Submit   *Stage
	Publish  *Stage

	Hooks    *HookSet
	Handlers ErrorHandlers

	mu      sync.Mutex
	errored map[string]bool // required-resource-type -> already logged
}

// HookSet names the stage-transition hooks exposed per spec §4.8.
type HookSet struct {
	MessagePolled    *hooks.EventHook
	MessageScheduled *hooks.EventHook
	MessageExecuted  *hooks.GeneratorHook
	MessagePublished *hooks.EventHook
	OutputBlocked    *hooks.GeneratorHook
}

// NewHookSet returns an empty HookSet.
func NewHookSet() *HookSet {
	return &HookSet{
		MessagePolled:    hooks.NewEventHook(nil),
		MessageScheduled: hooks.NewEventHook(nil),
		MessageExecuted:  hooks.NewGeneratorHook(nil),
		MessagePublished: hooks.NewEventHook(nil),
		OutputBlocked:    hooks.NewGeneratorHook(nil),
	}
}

// Run drives items through the full pipeline until the queue's source
// is exhausted or ctx is cancelled. Errors from one item never abort
// the pipeline for the rest.
func (p *Pipeline) Run(ctx context.Context) error {
	items, err := p.Queue.Run(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for msg := range items {
		if err := p.Poll.acquire(ctx); err != nil {
			break
		}
		p.Hooks.MessagePolled.Emit(ctx, msg)
		p.Poll.release()

		p.Cursors.Start(p.JobName, msg.Item.Cursor)

		wg.Add(1)
		go func(msg *queue.ExecutableMessage) {
			defer wg.Done()
			p.runOne(ctx, msg)
		}(msg)
	}
	wg.Wait()
	return nil
}

func (p *Pipeline) runOne(ctx context.Context, msg *queue.ExecutableMessage) {
	leases, err := p.scheduleResources(ctx, msg)
	if err != nil {
		p.Cursors.Complete(p.JobName, msg.Item.Cursor, false)
		msg.Executing.Close()
		msg.Full.Close()
		return
	}

	if err := p.waitForOutputRoom(ctx); err != nil {
		p.releaseLeases(leases)
		msg.Executing.Close()
		msg.Full.Close()
		return
	}

	if err := p.Submit.acquire(ctx); err != nil {
		p.releaseLeases(leases)
		msg.Executing.Close()
		msg.Full.Close()
		return
	}

	result, execErr := p.Hooks.MessageExecuted.Wrap(ctx, msg, func(ctx context.Context) (any, error) {
		return p.Executor.Execute(ctx, msg)
	})
	p.Submit.release()

	results, _ := result.(PipelineResults)
	ok := execErr == nil
	if execErr != nil {
		handled, hr := p.routeError(ctx, msg, execErr)
		if handled {
			results = hr.Results
			ok = true
		} else if hr != nil {
			// set_handled=false: publish the handler's outputs, keep the failure
			p.publish(ctx, msg, hr.Results)
		}
	}

	if ok {
		p.publish(ctx, msg, results)
		p.applyEvents(results.Events)
		leases = append(leases, results.Leases...)
	}

	p.releaseLeases(leases)
	p.Cursors.Complete(p.JobName, msg.Item.Cursor, ok)
	msg.Executing.Close()
	msg.Full.Close()
}

func (p *Pipeline) scheduleResources(ctx context.Context, msg *queue.ExecutableMessage) ([]*resources.Lease, error) {
	if err := p.Schedule.acquire(ctx); err != nil {
		return nil, err
	}
	defer p.Schedule.release()

	var leases []*resources.Lease
	for _, resType := range msg.Pipeline.RequiredResources {
		lease, _, err := p.Resources.Acquire(ctx, resType)
		if err != nil {
			if errors.IsKind(err, errors.KindResourceExhausted) {
				p.logResourceExhaustedOnce(resType)
			}
			p.releaseLeases(leases)
			return nil, err
		}
		leases = append(leases, lease)
	}
	p.Hooks.MessageScheduled.Emit(ctx, msg)
	return leases, nil
}

// waitForOutputRoom blocks while the queue's gate is locked, i.e. while
// some in-flight item's publish is parked on a full output topic.
// Submit must not hand the executor a new item while downstream is
// backpressured (§4.6 step 3); it re-checks Locked after every wake,
// since an unrelated token may still be parked.
func (p *Pipeline) waitForOutputRoom(ctx context.Context) error {
	if p.Queue == nil || p.Queue.Gate == nil {
		return nil
	}
	for p.Queue.Gate.Locked() {
		select {
		case <-p.Queue.Gate.Wait():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *Pipeline) logResourceExhaustedOnce(resType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.errored == nil {
		p.errored = make(map[string]bool)
	}
	if p.errored[resType] {
		return
	}
	p.errored[resType] = true
	logger.Warnw("no resource of required type registered", "resource_type", resType, logger.FieldJobID, p.JobName)
}

func (p *Pipeline) releaseLeases(leases []*resources.Lease) {
	for _, l := range leases {
		_ = p.Resources.Release(l)
	}
}

// PublishEvent is the message_published hook payload; Success realizes
// the spec's message_published.success/message_published.failed split
// as a single discriminated event rather than two distinct hooks.
type PublishEvent struct {
	Channel string
	Topic   string
	Success bool
	Err     error
}

// publish implements §4.6 step 5: for each output channel the executor
// populated, resolve the channel's declared topic names against
// p.Topics and publish with wait=true, parking the queue's gate for the
// duration of any blocked publish so Submit holds off on new items
// until a slot frees.
func (p *Pipeline) publish(ctx context.Context, msg *queue.ExecutableMessage, results PipelineResults) {
	if err := p.Publish.acquire(ctx); err != nil {
		return
	}
	defer p.Publish.release()

	for channel, out := range results.Outputs {
		for _, topicName := range msg.Outputs[channel] {
			driver, ok := p.Topics[topicName]
			if !ok {
				for range out {
					p.Hooks.MessagePublished.Emit(ctx, PublishEvent{Channel: channel, Topic: topicName, Success: false,
						Err: errors.Newf("no topic driver resolved for %q", topicName)})
				}
				continue
			}
			for _, m := range out {
				p.publishOne(ctx, channel, topicName, driver, m)
			}
		}
	}
}

func (p *Pipeline) publishOne(ctx context.Context, channel, topicName string, driver topic.Driver, msg topic.Message) {
	accepted, err := driver.Publish(ctx, msg, false)
	if err != nil {
		p.Hooks.MessagePublished.Emit(ctx, PublishEvent{Channel: channel, Topic: topicName, Success: false, Err: err})
		return
	}
	if accepted {
		p.Hooks.MessagePublished.Emit(ctx, PublishEvent{Channel: channel, Topic: topicName, Success: true})
		return
	}

	token := fmt.Sprintf("publish:%s", topicName)
	p.Queue.Gate.Park(token)
	defer p.Queue.Gate.Unpark(token)

	_, err = p.Hooks.OutputBlocked.Wrap(ctx, PublishEvent{Channel: channel, Topic: topicName}, func(ctx context.Context) (any, error) {
		_, err := driver.Publish(ctx, msg, true)
		return nil, err
	})
	p.Hooks.MessagePublished.Emit(ctx, PublishEvent{Channel: channel, Topic: topicName, Success: err == nil, Err: err})
}

func (p *Pipeline) applyEvents(events []PipelineEvent) {
	for _, ev := range events {
		switch e := ev.(type) {
		case CursorStateUpdated:
			p.Cursors.Start(p.JobName, e.Cursor)
			p.Cursors.Complete(p.JobName, e.Cursor, true)
		case StopLoopEvent:
			// not acted on; see StopLoopEvent
		}
	}
}
