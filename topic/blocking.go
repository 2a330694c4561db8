package topic

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/khulnasoft/DataLineup/errors"
)

// Synchronous is the contract a blocking driver implements: one
// synchronous poll and one synchronous publish, with no async contract
// of its own.
type Synchronous interface {
	// RunOnce returns the next message, or (zero, false, nil) if none is
	// available right now. A nil error with ok=false means "poll again
	// later"; a returned error is logged and retried with backoff.
	RunOnce(ctx context.Context) (Message, bool, error)
	PublishOnce(ctx context.Context, msg Message) (bool, error)
}

// BlockingTopic adapts a Synchronous driver to the async Driver contract
// by dedicating one background goroutine to polling it, grounded on the
// worker pool's goroutine-per-worker-with-context idiom: a panic or
// error in RunOnce is logged and retried with exponential backoff
// instead of tearing down the goroutine. Run's stream ends only when ctx
// is cancelled; RunOnce has no end-of-stream result.
type BlockingTopic struct {
	sync     Synchronous
	log      *zap.SugaredLogger
	minDelay time.Duration
	maxDelay time.Duration
}

// NewBlockingTopic wraps a Synchronous driver. log may be nil.
func NewBlockingTopic(sync Synchronous, log *zap.SugaredLogger) *BlockingTopic {
	return &BlockingTopic{sync: sync, log: log, minDelay: 50 * time.Millisecond, maxDelay: 5 * time.Second}
}

func (b *BlockingTopic) Open(ctx context.Context) error { return nil }

func (b *BlockingTopic) Run(ctx context.Context) (<-chan ScopedMessage, error) {
	out := make(chan ScopedMessage)
	go b.poll(ctx, out)
	return out, nil
}

func (b *BlockingTopic) poll(ctx context.Context, out chan<- ScopedMessage) {
	defer close(out)

	delay := b.minDelay
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, ok, err := b.runOnceSafely(ctx)
		if err != nil {
			if b.log != nil {
				b.log.Warnw("blocking topic poll error, retrying", "error", err, "backoff", delay)
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay = nextBackoff(delay, b.maxDelay)
			continue
		}
		delay = b.minDelay

		if !ok {
			select {
			case <-time.After(b.minDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case out <- ScopedMessage{Message: msg, Release: func() {}}:
		case <-ctx.Done():
			return
		}
	}
}

func (b *BlockingTopic) runOnceSafely(ctx context.Context) (msg Message, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if b.log != nil {
				b.log.Errorw("blocking topic RunOnce panicked", "recovered", r)
			}
			ok = false
			err = errors.Newf("RunOnce panicked: %v", r)
		}
	}()
	return b.sync.RunOnce(ctx)
}

func (b *BlockingTopic) Publish(ctx context.Context, msg Message, wait bool) (bool, error) {
	delay := b.minDelay
	for {
		ok, err := b.sync.PublishOnce(ctx, msg)
		if err != nil || ok || !wait {
			return ok, err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
		delay = nextBackoff(delay, b.maxDelay)
	}
}

func (b *BlockingTopic) Cursor() string { return "" }

func (b *BlockingTopic) Close() error { return nil }

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}
