package manager

import (
	"context"
	"sync"

	"github.com/khulnasoft/DataLineup/cursor"
)

// FakeClient is an in-memory Client for worker-level tests: no
// network, deterministic, and inspectable.
type FakeClient struct {
	mu sync.Mutex

	Response  LockResponse
	Topics    []ComponentDefinition
	Inventory []ComponentDefinition
	JobDefs   []ComponentDefinition

	PushedStates map[string]cursor.State
	SyncCalls    int
	LockCalls    []string // worker_ids passed to Lock, in order
}

// NewFakeClient returns a FakeClient that hands out resp on every Lock call.
func NewFakeClient(resp LockResponse) *FakeClient {
	return &FakeClient{Response: resp, PushedStates: make(map[string]cursor.State)}
}

func (f *FakeClient) Lock(ctx context.Context, workerID string) (*LockResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LockCalls = append(f.LockCalls, workerID)
	resp := f.Response
	return &resp, nil
}

func (f *FakeClient) SyncJobs(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SyncCalls++
	return nil
}

func (f *FakeClient) FetchCursorStates(ctx context.Context, jobNames []string) (map[string]cursor.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]cursor.State, len(jobNames))
	for _, name := range jobNames {
		if s, ok := f.PushedStates[name]; ok {
			out[name] = s
		}
	}
	return out, nil
}

func (f *FakeClient) PushJobStates(ctx context.Context, states map[string]cursor.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, s := range states {
		f.PushedStates[name] = s
	}
	return nil
}

func (f *FakeClient) ListTopics(ctx context.Context) ([]ComponentDefinition, error) {
	return f.Topics, nil
}

func (f *FakeClient) ListInventories(ctx context.Context) ([]ComponentDefinition, error) {
	return f.Inventory, nil
}

func (f *FakeClient) ListJobDefinitions(ctx context.Context) ([]ComponentDefinition, error) {
	return f.JobDefs, nil
}

func (f *FakeClient) PatchTopology(ctx context.Context, patch []byte) ([]byte, error) {
	return patch, nil
}
