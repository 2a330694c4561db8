// Package fanin multiplexes N asynchronous item sources into one stream,
// either fairly (round-robin) or by credit-weighted priority.
package fanin

import (
	"context"
	"reflect"
)

// ScopedItem is one item yielded by a source, tagged with the source it
// came from.
type ScopedItem struct {
	SourceName string
	Cursor     string
	Value      any
}

// Source is one child stream a FanIn multiplexes over.
type Source struct {
	Name     string
	Priority int
	Items    <-chan ScopedItem
}

// FanIn multiplexes sources round-robin: at each step it serves the next
// source (in declaration order, wrapping) that currently has a value
// ready, skipping empty ones. Starvation-free while all sources are live.
type FanIn struct {
	sources []Source
	next    int
	cursors map[string]string
}

// NewFanIn builds a round-robin fan-in over the given sources, served in
// declaration order.
func NewFanIn(sources []Source) *FanIn {
	return &FanIn{sources: sources, cursors: make(map[string]string)}
}

// Next blocks until an item is available from any source or ctx is
// cancelled. It always starts its sweep just after the source served
// last time, so no live source is starved.
func (f *FanIn) Next(ctx context.Context) (ScopedItem, error) {
	n := len(f.sources)

	// Non-blocking sweep first, preserving round-robin order: this is
	// what makes the scheduler starvation-free instead of select-random.
	for i := 0; i < n; i++ {
		idx := (f.next + i) % n
		select {
		case item, ok := <-f.sources[idx].Items:
			if !ok {
				continue
			}
			f.next = (idx + 1) % n
			f.cursors[item.SourceName] = item.Cursor
			return item, nil
		default:
		}
	}

	// Nothing ready: block on whichever source (or cancellation) fires
	// first, via a dynamic reflect.Select over every channel.
	cases := make([]reflect.SelectCase, 0, n+1)
	order := make([]int, 0, n)
	for i, s := range f.sources {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(s.Items)})
		order = append(order, i)
	}
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})

	for {
		chosen, recv, ok := reflect.Select(cases)
		if chosen == len(order) {
			return ScopedItem{}, ctx.Err()
		}
		if !ok {
			// this source closed; block forever on it so it's never
			// picked again, and keep waiting on the rest
			cases[chosen].Chan = reflect.ValueOf((chan ScopedItem)(nil))
			continue
		}
		item := recv.Interface().(ScopedItem)
		f.next = (order[chosen] + 1) % n
		f.cursors[item.SourceName] = item.Cursor
		return item, nil
	}
}

// Cursor returns the aggregate cursor: one opaque child cursor per
// source name, reflecting the most recently served item from each.
func (f *FanIn) Cursor() map[string]string {
	out := make(map[string]string, len(f.cursors))
	for k, v := range f.cursors {
		out[k] = v
	}
	return out
}
