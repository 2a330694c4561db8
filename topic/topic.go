// Package topic defines the unified source/sink contract inventories
// and topics implement, plus the adapter that lets a synchronous driver
// participate in the asynchronous contract.
package topic

import "context"

// Message is an immutable unit of data flowing between pipeline stages.
// Once produced it is never mutated; round-tripping through a driver's
// wire format must preserve Args, Tags, and Metadata verbatim, including
// nil values.
type Message struct {
	ID       string
	Args     map[string]any
	Tags     map[string]string
	Metadata map[string]map[string]any
	Config   map[string]map[string]any
}

// ScopedMessage pairs a Message with a release function for its scoped
// acquisition; failing to call Release exactly once is a bug.
type ScopedMessage struct {
	Message Message
	Release func()
}

// Item is one inventory record, carrying an optional source cursor and
// a scoped resource bundle released on completion.
type Item struct {
	ID       string
	Cursor   string
	Args     map[string]any
	Tags     map[string]string
	Metadata map[string]map[string]any
	Release  func()
}

// Driver unifies source and sink: Run streams ScopedMessages, Publish
// accepts or rejects one, and Cursor reports the current resumable
// checkpoint.
type Driver interface {
	Open(ctx context.Context) error
	Run(ctx context.Context) (<-chan ScopedMessage, error)
	// Publish returns true if accepted; false means transient
	// backpressure. When wait is true it blocks until accepted or ctx
	// cancellation instead of returning false.
	Publish(ctx context.Context, msg Message, wait bool) (bool, error)
	Cursor() string
	Close() error
}

// Inventory is a restartable, possibly infinite, ordered item source.
type Inventory interface {
	Open(ctx context.Context) error
	Iterate(ctx context.Context, after string) (<-chan Item, error)
	Cursor() string
	Close() error
}
