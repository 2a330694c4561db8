package storeadmin

import (
	"context"
	"sync"
	"time"

	"github.com/khulnasoft/DataLineup/cursor"
	"github.com/khulnasoft/DataLineup/errors"
	"github.com/khulnasoft/DataLineup/manager"
	"github.com/khulnasoft/DataLineup/topology"
)

// DefaultLeaseTTL bounds how long a worker's queue assignment survives
// without a fresh Lock call before another worker may reclaim it.
const DefaultLeaseTTL = 3 * time.Minute

// Client is an in-process manager.Client for a worker running without
// a separate manager process: queue assignment and cursor state live
// in a local Store, and the static component catalog (topics,
// inventories, executors, resources, resource providers) comes from a
// parsed topology file instead of /api/topics etc.
type Client struct {
	Store    *Store
	LeaseTTL time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time

	mu       sync.RWMutex
	topology *topology.Topology
}

// NewClient seeds store with every queue topo compiles to (idempotent:
// existing assignments are left untouched) and returns a ready Client.
func NewClient(ctx context.Context, store *Store, topo *topology.Topology) (*Client, error) {
	c := &Client{Store: store, LeaseTTL: DefaultLeaseTTL, Now: time.Now}
	if err := c.Reload(ctx, topo); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload swaps in a freshly parsed topology and seeds the store with
// any queue it compiles to that doesn't already have a row (existing
// assignments and cursor state are untouched), for
// config.TopologyWatcher-driven hot reload in standalone mode.
func (c *Client) Reload(ctx context.Context, topo *topology.Topology) error {
	items, err := topo.Compile()
	if err != nil {
		return errors.Wrap(err, "compile topology")
	}
	for _, item := range items {
		if err := c.Store.CreateQueue(ctx, item); err != nil {
			return err
		}
		if err := c.Store.CreateJob(ctx, item.Name); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.topology = topo
	c.mu.Unlock()
	return nil
}

func (c *Client) currentTopology() *topology.Topology {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topology
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Lock reclaims any queue unassigned or whose lease has expired,
// assigns it to workerID, and returns every queue now assigned to
// workerID with its persisted cursor state overlaid, alongside the
// topology's static resources, resource providers, and executors.
func (c *Client) Lock(ctx context.Context, workerID string) (*manager.LockResponse, error) {
	cutoff := c.now().Add(-c.LeaseTTL)
	reclaimable, err := c.Store.ListUnassignedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(reclaimable) > 0 {
		names := make([]string, len(reclaimable))
		for i, item := range reclaimable {
			names[i] = item.Name
		}
		if err := c.Store.AssignQueues(ctx, workerID, names, c.now()); err != nil {
			return nil, err
		}
	}

	items, err := c.Store.ListAssignedTo(ctx, workerID)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	states, err := c.Store.FetchCursorStates(ctx, names)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		if state, ok := states[item.Name]; ok {
			items[i].State.Cursor = state
		}
	}

	topo := c.currentTopology()
	return &manager.LockResponse{
		Items:              items,
		Resources:          resourceDefs(topo),
		ResourcesProviders: componentDefs(topo.ResourcesProviders),
		Executors:          componentDefs(topo.Executors),
	}, nil
}

// SyncJobs is a housekeeping no-op in standalone mode: there is no
// separate manager-side job table to reconcile against.
func (c *Client) SyncJobs(ctx context.Context) error { return nil }

// FetchCursorStates delegates to Store.
func (c *Client) FetchCursorStates(ctx context.Context, jobNames []string) (map[string]cursor.State, error) {
	return c.Store.FetchCursorStates(ctx, jobNames)
}

// PushJobStates delegates to Store.
func (c *Client) PushJobStates(ctx context.Context, states map[string]cursor.State) error {
	return c.Store.PushJobStates(ctx, states)
}

// ListTopics returns the topology's static topic catalog.
func (c *Client) ListTopics(ctx context.Context) ([]manager.ComponentDefinition, error) {
	return componentDefs(c.currentTopology().Topics), nil
}

// ListInventories returns the topology's static inventory catalog.
func (c *Client) ListInventories(ctx context.Context) ([]manager.ComponentDefinition, error) {
	return componentDefs(c.currentTopology().Inventories), nil
}

// ListJobDefinitions returns the topology's static job-definition
// catalog (the templates DatalineupDynamicTopology instances expand).
func (c *Client) ListJobDefinitions(ctx context.Context) ([]manager.ComponentDefinition, error) {
	topo := c.currentTopology()
	defs := make([]manager.ComponentDefinition, 0, len(topo.JobDefinitions))
	for name := range topo.JobDefinitions {
		defs = append(defs, manager.ComponentDefinition{Name: name})
	}
	return defs, nil
}

// PatchTopology appends patch to the topology-patch log and echoes it
// back unchanged: standalone mode treats a patch as an audit record,
// not a live mutation of the running topology (applying it requires a
// restart against the rewritten topology file).
func (c *Client) PatchTopology(ctx context.Context, patch []byte) ([]byte, error) {
	if err := c.Store.RecordTopologyPatch(ctx, "unknown", "unknown", patch); err != nil {
		return nil, err
	}
	return patch, nil
}

func componentDefs(specs map[string]topology.ComponentSpec) []manager.ComponentDefinition {
	defs := make([]manager.ComponentDefinition, 0, len(specs))
	for name, spec := range specs {
		defs = append(defs, manager.ComponentDefinition{Name: name, Type: spec.Type, Version: spec.Version, Options: spec.Options})
	}
	return defs
}

func resourceDefs(topo *topology.Topology) []manager.ComponentDefinition {
	defs := make([]manager.ComponentDefinition, 0, len(topo.Resources))
	for name, spec := range topo.Resources {
		options := map[string]any{
			"data":         spec.Data,
			"defaultDelay": spec.DefaultDelay,
			"strategy":     spec.Strategy,
		}
		if len(spec.RateLimits) > 0 {
			rateLimits := make([]any, len(spec.RateLimits))
			for i, rl := range spec.RateLimits {
				rateLimits[i] = rl
			}
			options["rateLimits"] = rateLimits
		}
		defs = append(defs, manager.ComponentDefinition{Name: name, Type: spec.Type, Options: options})
	}
	return defs
}

var _ manager.Client = (*Client)(nil)
