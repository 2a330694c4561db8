package resources

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/khulnasoft/DataLineup/errors"
)

// Limiter gates how often a resource may be acquired, independent of
// whether the resource itself is busy. A resource's declared rate_limits
// are ANDed together by multiLimiter.
type Limiter interface {
	// Allow reports whether a call is permitted right now, recording it
	// if so.
	Allow(now time.Time) error
}

// fixedWindowLimiter enforces maxCalls per window using a sliding window
// of call timestamps, grounded on the worker's original budget limiter.
type fixedWindowLimiter struct {
	maxCalls int
	window   time.Duration

	mu        sync.Mutex
	callTimes []time.Time
}

// NewFixedWindowLimiter returns a Limiter allowing at most maxCalls calls
// in any trailing window of the given duration.
func NewFixedWindowLimiter(maxCalls int, window time.Duration) Limiter {
	return &fixedWindowLimiter{
		maxCalls:  maxCalls,
		window:    window,
		callTimes: make([]time.Time, 0, maxCalls),
	}
}

func (l *fixedWindowLimiter) Allow(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	expired := 0
	for _, t := range l.callTimes {
		if !t.After(cutoff) {
			expired++
		} else {
			break
		}
	}
	l.callTimes = l.callTimes[expired:]

	if len(l.callTimes) >= l.maxCalls {
		return errors.WithKind(errors.Newf(
			"rate limit exceeded: %d calls per %s (limit %d)",
			len(l.callTimes), l.window, l.maxCalls,
		), errors.KindTransientIO)
	}

	l.callTimes = append(l.callTimes, now)
	return nil
}

// movingWindowLimiter wraps golang.org/x/time/rate's token bucket for a
// smoother "moving" strategy than the fixed sliding window above.
type movingWindowLimiter struct {
	limiter *rate.Limiter
}

// NewMovingWindowLimiter returns a Limiter backed by a token bucket that
// refills at ratePerSecond and allows bursts up to burst.
func NewMovingWindowLimiter(ratePerSecond float64, burst int) Limiter {
	return &movingWindowLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (l *movingWindowLimiter) Allow(now time.Time) error {
	if l.limiter.AllowN(now, 1) {
		return nil
	}
	return errors.WithKind(errors.New("rate limit exceeded: moving window exhausted"), errors.KindTransientIO)
}

// multiLimiter ANDs together every rate_limits entry declared for a
// resource: a call is allowed only if every constituent limiter allows it.
type multiLimiter struct {
	limiters []Limiter
}

// NewMultiLimiter combines zero or more limiters. A call with zero
// limiters always allows.
func NewMultiLimiter(limiters ...Limiter) Limiter {
	return &multiLimiter{limiters: limiters}
}

func (l *multiLimiter) Allow(now time.Time) error {
	for _, child := range l.limiters {
		if err := child.Allow(now); err != nil {
			return err
		}
	}
	return nil
}
