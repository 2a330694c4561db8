package fanin

import (
	"context"
	"reflect"
)

// PriorityFanIn multiplexes sources by credit-weighted priority: each
// source i starts with credits == its priority p_i; at each tick the
// source whose served_i/p_i ratio is lowest (ties broken by declaration
// order) is served and its credit decremented. When every credit reaches
// zero, credits reset to priorities. Steady-state share of source i
// converges to p_i / sum(p_j).
//
// Choosing by ratio requires knowing which sources are *currently* ready
// without consuming from the others, so each source gets a one-item
// peek buffer: Next fills empty peek slots with a non-blocking receive
// before picking among them.
type PriorityFanIn struct {
	sources []Source
	credits []int
	served  []int
	peeked  []*ScopedItem
	cursors map[string]string
}

// NewPriorityFanIn builds a credit-weighted fan-in. A source with
// priority <= 0 is treated as priority 1.
func NewPriorityFanIn(sources []Source) *PriorityFanIn {
	credits := make([]int, len(sources))
	for i, s := range sources {
		p := s.Priority
		if p <= 0 {
			p = 1
		}
		credits[i] = p
	}
	return &PriorityFanIn{
		sources: sources,
		credits: credits,
		served:  make([]int, len(sources)),
		peeked:  make([]*ScopedItem, len(sources)),
		cursors: make(map[string]string),
	}
}

func (f *PriorityFanIn) priority(i int) int {
	p := f.sources[i].Priority
	if p <= 0 {
		return 1
	}
	return p
}

func (f *PriorityFanIn) resetIfExhausted() {
	for _, c := range f.credits {
		if c > 0 {
			return
		}
	}
	for i := range f.credits {
		f.credits[i] = f.priority(i)
	}
}

// fillPeeks opportunistically tops up every empty peek slot with a
// non-blocking receive.
func (f *PriorityFanIn) fillPeeks() {
	for i, s := range f.sources {
		if f.peeked[i] != nil {
			continue
		}
		select {
		case item, ok := <-s.Items:
			if ok {
				item := item
				f.peeked[i] = &item
			}
		default:
		}
	}
}

// pick selects the index with a filled peek slot, positive credit, and
// minimal served/priority ratio.
func (f *PriorityFanIn) pick() int {
	best := -1
	var bestRatio float64
	for i := range f.sources {
		if f.peeked[i] == nil || f.credits[i] <= 0 {
			continue
		}
		ratio := float64(f.served[i]) / float64(f.priority(i))
		if best == -1 || ratio < bestRatio {
			best = i
			bestRatio = ratio
		}
	}
	return best
}

// Next blocks until an item is available from an eligible (positive
// credit) source or ctx is cancelled.
func (f *PriorityFanIn) Next(ctx context.Context) (ScopedItem, error) {
	for {
		f.resetIfExhausted()
		f.fillPeeks()

		if idx := f.pick(); idx >= 0 {
			return f.serve(idx), nil
		}

		if err := f.blockUntilAnyPeeked(ctx); err != nil {
			return ScopedItem{}, err
		}
	}
}

// blockUntilAnyPeeked waits for the first empty-peek source to produce
// a value (filling its slot) or for ctx to be cancelled. It does not
// serve anything itself; the caller re-runs pick() after this returns.
func (f *PriorityFanIn) blockUntilAnyPeeked(ctx context.Context) error {
	cases := make([]reflect.SelectCase, 0, len(f.sources)+1)
	idxs := make([]int, 0, len(f.sources))
	for i, s := range f.sources {
		if f.peeked[i] != nil {
			continue
		}
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(s.Items)})
		idxs = append(idxs, i)
	}
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})

	chosen, recv, ok := reflect.Select(cases)
	if chosen == len(idxs) {
		return ctx.Err()
	}
	if ok {
		item := recv.Interface().(ScopedItem)
		f.peeked[idxs[chosen]] = &item
	}
	return nil
}

func (f *PriorityFanIn) serve(idx int) ScopedItem {
	item := *f.peeked[idx]
	f.peeked[idx] = nil
	if f.credits[idx] > 0 {
		f.credits[idx]--
	}
	f.served[idx]++
	f.cursors[item.SourceName] = item.Cursor
	return item
}

// Cursor returns the aggregate cursor across all sources.
func (f *PriorityFanIn) Cursor() map[string]string {
	out := make(map[string]string, len(f.cursors))
	for k, v := range f.cursors {
		out[k] = v
	}
	return out
}
