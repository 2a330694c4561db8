// Package work reconciles a worker's live set of queues, resources,
// resource providers, and executors against whatever a manager.Client
// last handed back from /api/lock, on a fixed period or on demand.
package work

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/executor"
	"github.com/khulnasoft/DataLineup/job"
	"github.com/khulnasoft/DataLineup/manager"
	"github.com/khulnasoft/DataLineup/queue"
	"github.com/khulnasoft/DataLineup/registry"
	"github.com/khulnasoft/DataLineup/resources"
	"github.com/khulnasoft/DataLineup/topic"
)

// DefaultSyncPeriod matches worker_manager.sync_period's documented
// default.
const DefaultSyncPeriod = 60 * time.Second

// DefaultDrainGrace bounds how long a dropped queue is given to finish
// in-flight items before its context is force-cancelled.
const DefaultDrainGrace = 30 * time.Second

// DefaultFlushPeriod bounds how often running queues' cursor state is
// flushed and pushed back through Client, independent of SyncPeriod.
const DefaultFlushPeriod = 10 * time.Second

type runningQueue struct {
	cancel context.CancelFunc
	done   chan struct{}
	topics []topic.Driver
}

type runningProvider struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Syncer owns the live reconciliation loop for one worker identity.
type Syncer struct {
	Client      manager.Client
	WorkerID    string
	SyncPeriod  time.Duration
	DrainGrace  time.Duration
	FlushPeriod time.Duration
	Registry   *registry.Registry
	Resources  *resources.Manager
	Cursors    *cursor.Store
	Log        *zap.SugaredLogger

	// BuildExecutor resolves a queue's named executor reference (from
	// LockResponse.Executors) into a RemoteExecutor. Left to the
	// caller because RemoteExecutor implementations are in-process
	// adapters with no generic factory shape worth forcing through
	// the registry's Options map.
	BuildExecutor func(def manager.ComponentDefinition) (executor.RemoteExecutor, error)

	// PerItemMemoryBytes and MemoryBufferBytes bound submit-stage
	// concurrency against available system memory (0 disables the
	// check, taking the executor's own requested concurrency as-is).
	PerItemMemoryBytes uint64
	MemoryBufferBytes  uint64

	mu        sync.Mutex
	queues    map[string]*runningQueue
	providers map[string]*runningProvider
}

// New returns a Syncer ready to Start.
func New(client manager.Client, workerID string, reg *registry.Registry, res *resources.Manager, cursors *cursor.Store, log *zap.SugaredLogger) *Syncer {
	return &Syncer{
		Client:      client,
		WorkerID:    workerID,
		SyncPeriod:  DefaultSyncPeriod,
		DrainGrace:  DefaultDrainGrace,
		FlushPeriod: DefaultFlushPeriod,
		Registry:    reg,
		Resources:   res,
		Cursors:     cursors,
		Log:         log,
		queues:      make(map[string]*runningQueue),
		providers:   make(map[string]*runningProvider),
	}
}

// Start runs the sync loop until ctx is cancelled, ticking every
// SyncPeriod and performing one Sync immediately on entry.
func (s *Syncer) Start(ctx context.Context) error {
	if err := s.Sync(ctx); err != nil {
		s.Log.Errorw("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(s.SyncPeriod)
	defer ticker.Stop()

	flushPeriod := s.FlushPeriod
	if flushPeriod <= 0 {
		flushPeriod = DefaultFlushPeriod
	}
	flushTicker := time.NewTicker(flushPeriod)
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.flushCursors(ctx)
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.Log.Errorw("sync failed", "error", err)
			}
		case <-flushTicker.C:
			s.flushCursors(ctx)
		}
	}
}

// flushCursors snapshots cursor state for every currently running queue
// and pushes the batch through Client in one call. Flush is a read of
// the in-memory state, not a destructive drain, so a failed push leaves
// nothing lost beyond having to wait for the next cadence.
func (s *Syncer) flushCursors(ctx context.Context) {
	names := s.QueueNames()
	if len(names) == 0 {
		return
	}

	states := make(map[string]cursor.State, len(names))
	for _, name := range names {
		states[name] = s.Cursors.Flush(name)
	}

	if err := s.Client.PushJobStates(ctx, states); err != nil {
		s.Log.Warnw("failed to push cursor states", "error", err)
	}
}

// Sync fetches one lock response and reconciles it against the
// currently running queues and resource providers, adding before
// dropping so a replaced queue never has a window with neither copy
// running.
func (s *Syncer) Sync(ctx context.Context) error {
	resp, err := s.Client.Lock(ctx, s.WorkerID)
	if err != nil {
		return errors.Wrap(err, "lock")
	}

	s.syncResources(resp.Resources)
	s.syncProviders(ctx, resp.ResourcesProviders)
	s.syncQueues(ctx, resp.Items, resp.Executors)
	return nil
}

func (s *Syncer) syncResources(defs []manager.ComponentDefinition) {
	for _, def := range defs {
		provided, err := resourceFromDefinition(def)
		if err != nil {
			s.Log.Warnw("skipping malformed resource definition", "name", def.Name, "error", err)
			continue
		}
		s.Resources.Add(provided)
	}
}

func (s *Syncer) syncProviders(ctx context.Context, defs []manager.ComponentDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	desired := make(map[string]manager.ComponentDefinition, len(defs))
	for _, def := range defs {
		desired[def.Name] = def
	}

	for name, def := range desired {
		if _, running := s.providers[name]; running {
			continue
		}
		built, err := s.Registry.Resolve("resources_provider", def.Type, def.Version, def.Options)
		if err != nil {
			s.Log.Warnw("failed to resolve resources provider", "name", name, "error", err)
			continue
		}
		provider, ok := built.(resources.ResourcesProvider)
		if !ok {
			s.Log.Warnw("resolved resources provider has wrong type", "name", name)
			continue
		}

		pctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func(name string) {
			defer close(done)
			if err := s.Resources.RunProvider(pctx, provider); err != nil && pctx.Err() == nil {
				s.Log.Warnw("resources provider exited", "name", name, "error", err)
			}
		}(name)
		s.providers[name] = &runningProvider{cancel: cancel, done: done}
	}

	for name, rp := range s.providers {
		if _, wanted := desired[name]; !wanted {
			s.dropProvider(rp)
			delete(s.providers, name)
		}
	}
}

func (s *Syncer) dropProvider(rp *runningProvider) {
	grace := s.DrainGrace
	go func() {
		select {
		case <-rp.done:
		case <-time.After(grace):
			rp.cancel()
			<-rp.done
		}
	}()
}

func (s *Syncer) syncQueues(ctx context.Context, items []manager.QueueItemWithState, executorDefs []manager.ComponentDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	executorsByName := make(map[string]manager.ComponentDefinition, len(executorDefs))
	for _, def := range executorDefs {
		executorsByName[def.Name] = def
	}

	desired := make(map[string]manager.QueueItemWithState, len(items))
	for _, item := range items {
		desired[item.Name] = item
	}

	for name, item := range desired {
		if _, running := s.queues[name]; running {
			continue
		}
		rq, err := s.startQueue(ctx, item, executorsByName)
		if err != nil {
			s.Log.Warnw("failed to build queue for worker item", "queue", name, "error", err)
			continue
		}
		s.queues[name] = rq
	}

	for name, rq := range s.queues {
		if _, wanted := desired[name]; !wanted {
			s.dropQueue(rq)
			delete(s.queues, name)
		}
	}
}

func (s *Syncer) startQueue(ctx context.Context, item manager.QueueItemWithState, executorsByName map[string]manager.ComponentDefinition) (*runningQueue, error) {
	built, err := s.Registry.Resolve("inventory", item.Input.Type, item.Input.Version, item.Input.Options)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve inventory for queue %q", item.Name)
	}
	inv, ok := built.(topic.Inventory)
	if !ok {
		return nil, errors.Newf("resolved inventory for queue %q has wrong type", item.Name)
	}

	execDef, ok := executorsByName[item.Executor]
	if !ok {
		return nil, errors.Newf("queue %q references unknown executor %q", item.Name, item.Executor)
	}
	if s.BuildExecutor == nil {
		return nil, errors.Newf("no executor builder configured for queue %q", item.Name)
	}
	remote, err := s.BuildExecutor(execDef)
	if err != nil {
		return nil, errors.Wrapf(err, "build executor for queue %q", item.Name)
	}

	outputs := make(map[string][]string, len(item.Output))
	for channel, defs := range item.Output {
		names := make([]string, 0, len(defs))
		for _, d := range defs {
			names = append(names, d.Name)
		}
		outputs[channel] = names
	}

	topics, topicDrivers, err := s.resolveTopics(ctx, item.Output)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve output topics for queue %q", item.Name)
	}

	pipelineInfo := queue.PipelineInfo{Name: item.Pipeline.Info, RequiredResources: item.RequiredResources}

	qctx, cancel := context.WithCancel(ctx)
	j := job.New(item.Name, inv, s.Cursors, pipelineInfo, outputs)

	if item.State.Cursor.V != 0 {
		s.Cursors.Restore(item.Name, item.State.Cursor)
	}

	eq, err := j.Run(qctx)
	if err != nil {
		cancel()
		for _, d := range topicDrivers {
			_ = d.Close()
		}
		return nil, errors.Wrapf(err, "start inventory stream for queue %q", item.Name)
	}

	pipeline := &executor.Pipeline{
		Queue:     eq,
		Resources: s.Resources,
		Cursors:   s.Cursors,
		JobName:   item.Name,
		Executor:  remote,
		Topics:    topics,
		Poll:      executor.NewStage(fmt.Sprintf("%s-poll", item.Name), 1),
		Schedule:  executor.NewStage(fmt.Sprintf("%s-schedule", item.Name), 0),
		Submit:    executor.NewStage(fmt.Sprintf("%s-submit", item.Name), s.submitConcurrency(item.Name, remote.Concurrency())),
		Publish:   executor.NewStage(fmt.Sprintf("%s-publish", item.Name), 0),
		Hooks:     executor.NewHookSet(),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := pipeline.Run(qctx); err != nil && qctx.Err() == nil {
			s.Log.Warnw("pipeline exited", "queue", item.Name, "error", err)
		}
	}()

	return &runningQueue{cancel: cancel, done: done, topics: topicDrivers}, nil
}

// resolveTopics resolves every declared output component into a live
// topic.Driver, opened and ready for Publish. Returns both the
// name-keyed map a Pipeline publishes against and the flat slice used
// to close every driver on teardown. A queue with no declared outputs
// resolves to an empty map.
func (s *Syncer) resolveTopics(ctx context.Context, output map[string][]manager.ComponentDefinition) (map[string]topic.Driver, []topic.Driver, error) {
	topics := make(map[string]topic.Driver)
	drivers := make([]topic.Driver, 0, len(output))
	for _, defs := range output {
		for _, def := range defs {
			if _, ok := topics[def.Name]; ok {
				continue
			}
			built, err := s.Registry.Resolve("topic", def.Type, def.Version, def.Options)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "resolve topic %q", def.Name)
			}
			driver, ok := built.(topic.Driver)
			if !ok {
				return nil, nil, errors.Newf("resolved topic %q has wrong type", def.Name)
			}
			if err := driver.Open(ctx); err != nil {
				return nil, nil, errors.Wrapf(err, "open topic %q", def.Name)
			}
			topics[def.Name] = driver
			drivers = append(drivers, driver)
		}
	}
	return topics, drivers, nil
}

// QueueNames reports the currently running queue names, for tests and
// diagnostics.
func (s *Syncer) QueueNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.queues))
	for name := range s.queues {
		names = append(names, name)
	}
	return names
}

// submitConcurrency caps requested against current memory pressure
// when the syncer was configured with a per-item memory estimate;
// falls back to requested unchanged if the estimate is unset or the
// host's memory stats can't be read.
func (s *Syncer) submitConcurrency(queueName string, requested int) int {
	if s.PerItemMemoryBytes == 0 {
		return requested
	}
	stats, err := resources.CurrentMemoryStats()
	if err != nil {
		s.Log.Warnw("failed to read memory stats, leaving submit concurrency unchanged", "queue", queueName, "error", err)
		return requested
	}
	capped := resources.RecommendedConcurrency(stats, s.PerItemMemoryBytes, s.MemoryBufferBytes, requested)
	if capped < requested {
		s.Log.Infow("capping submit concurrency for memory pressure", "queue", queueName, "requested", requested, "capped", capped)
	}
	return capped
}

func (s *Syncer) dropQueue(rq *runningQueue) {
	grace := s.DrainGrace
	go func() {
		select {
		case <-rq.done:
		case <-time.After(grace):
			rq.cancel()
			<-rq.done
		}
		for _, d := range rq.topics {
			_ = d.Close()
		}
	}()
}
