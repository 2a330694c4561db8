// Package manager defines the worker-facing contract of the central
// manager: the component definitions it hands out, the lock response
// a worker reconciles against, and the Client interface a Syncer calls.
package manager

import (
	"context"

	"github.com/khulnasoft/DataLineup/cursor"
)

// ComponentDefinition is a factory recipe resolved by a registry: a
// named, typed, option-bearing reference to a topic, inventory,
// executor, or resources provider.
type ComponentDefinition struct {
	Name    string
	Type    string
	Version string
	Options map[string]any
}

// QueueMeta is a queue's static pipeline/labelling metadata, carried
// alongside its input/output component definitions.
type QueueMeta struct {
	Info string
	Args map[string]any
}

// QueueState is the mutable, manager-tracked half of a queue
// assignment: its cursor and when it was started.
type QueueState struct {
	Cursor    cursor.State
	StartedAt string
}

// QueueItemWithState is one compiled queue assignment, the unit the
// manager hands a worker via LockResponse.Items.
type QueueItemWithState struct {
	Name              string
	Input             ComponentDefinition
	Output            map[string][]ComponentDefinition
	Pipeline          QueueMeta
	Labels            map[string]string
	RequiredResources []string
	Executor          string
	Config            map[string]any
	State             QueueState
}

// LockResponse is what /api/lock returns: the full assigned set for
// one worker_id, replaced wholesale on every lock call.
type LockResponse struct {
	Items              []QueueItemWithState
	Resources          []ComponentDefinition
	ResourcesProviders []ComponentDefinition
	Executors          []ComponentDefinition
}

// Client is the worker-side view of the manager's HTTP API (§6).
type Client interface {
	Lock(ctx context.Context, workerID string) (*LockResponse, error)
	SyncJobs(ctx context.Context) error
	FetchCursorStates(ctx context.Context, jobNames []string) (map[string]cursor.State, error)
	PushJobStates(ctx context.Context, states map[string]cursor.State) error
	ListTopics(ctx context.Context) ([]ComponentDefinition, error)
	ListInventories(ctx context.Context) ([]ComponentDefinition, error)
	ListJobDefinitions(ctx context.Context) ([]ComponentDefinition, error)
	PatchTopology(ctx context.Context, patch []byte) ([]byte, error)
}
