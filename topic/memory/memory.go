// Package memory implements topic.Driver and topic.Inventory over an
// in-process bounded channel and a fixed slice, used by tests and the
// reference scenarios.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/khulnasoft/DataLineup/topic"
)

// Topic is an in-process, bounded-channel Driver used by tests and the
// reference scenarios: Publish enqueues onto a fixed-size buffer and
// reports backpressure (false, no error) when it's full and wait=false.
type Topic struct {
	mu     sync.Mutex
	buf    chan topic.ScopedMessage
	cursor int64
	closed bool
}

// NewTopic returns a memory Topic with the given buffer size.
func NewTopic(size int) *Topic {
	return &Topic{buf: make(chan topic.ScopedMessage, size)}
}

func (t *Topic) Open(ctx context.Context) error { return nil }

func (t *Topic) Run(ctx context.Context) (<-chan topic.ScopedMessage, error) {
	return t.buf, nil
}

func (t *Topic) Publish(ctx context.Context, msg topic.Message, wait bool) (bool, error) {
	sm := topic.ScopedMessage{Message: msg, Release: func() {}}

	if !wait {
		select {
		case t.buf <- sm:
			t.advance()
			return true, nil
		default:
			return false, nil
		}
	}

	select {
	case t.buf <- sm:
		t.advance()
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (t *Topic) advance() {
	t.mu.Lock()
	t.cursor++
	t.mu.Unlock()
}

func (t *Topic) Cursor() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strconv.FormatInt(t.cursor, 10)
}

func (t *Topic) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.buf)
	}
	return nil
}

// Len reports how many messages are currently buffered, for tests that
// assert on backpressure (scenario 4: a publish queue of maxsize=1).
func (t *Topic) Len() int {
	return len(t.buf)
}

// Inventory is an in-process ordered Item source backed by a fixed
// slice, with Iterate resuming after a given numeric-string cursor.
type Inventory struct {
	mu     sync.Mutex
	items  []topic.Item
	cursor string
}

// NewInventory returns a memory Inventory over items, each assigned a
// cursor equal to its index if it doesn't already carry one.
func NewInventory(items []topic.Item) *Inventory {
	for i := range items {
		if items[i].Cursor == "" {
			items[i].Cursor = strconv.Itoa(i)
		}
	}
	return &Inventory{items: items}
}

func (inv *Inventory) Open(ctx context.Context) error { return nil }

func (inv *Inventory) Iterate(ctx context.Context, after string) (<-chan topic.Item, error) {
	out := make(chan topic.Item)
	go func() {
		defer close(out)
		started := after == ""
		for _, item := range inv.items {
			if !started {
				if item.Cursor == after {
					started = true
				}
				continue
			}
			select {
			case out <- item:
				inv.mu.Lock()
				inv.cursor = item.Cursor
				inv.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (inv *Inventory) Cursor() string {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.cursor
}

func (inv *Inventory) Close() error { return nil }
