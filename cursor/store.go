// Package cursor tracks, per job, the highest prefix-completed source
// cursor and any out-of-order completions pending compaction into that
// prefix, so a crashed worker resumes without losing or repeating work.
package cursor

import (
	"encoding/json"
	"sync"
	"time"
)

// State is the versioned resumable cursor handed to the manager and
// restored on worker startup.
type State struct {
	V int      `json:"v"`
	A string   `json:"a,omitempty"`
	P []string `json:"p,omitempty"`
}

// Completion records the terminal outcome of a job's source once it has
// been exhausted and every pending item has drained.
type Completion struct {
	CompletedAt time.Time
	Err         error
}

// jobState is one job's in-memory cursor bookkeeping: the observed
// emission order of cursors (so opaque strings can be compacted without
// comparing across sources), the highest prefix-completed cursor, and
// the set of completed cursors not yet folded into that prefix.
type jobState struct {
	order     []string        // cursors in the order this job ever emitted them
	seen      map[string]bool // cursor -> emitted
	completed map[string]bool // cursor -> completed
	after     string          // "" means no prefix completed yet
	inFlight  map[string]bool
	done      *Completion
}

func newJobState() *jobState {
	return &jobState{
		seen:      make(map[string]bool),
		completed: make(map[string]bool),
		inFlight:  make(map[string]bool),
	}
}

// Store is the worker's single shared-mutable cursor-state singleton,
// holding one jobState per job name.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*jobState
}

// NewStore returns an empty cursor store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobState)}
}

func (s *Store) jobFor(name string) *jobState {
	js, ok := s.jobs[name]
	if !ok {
		js = newJobState()
		s.jobs[name] = js
	}
	return js
}

// Start marks an item's cursor as in-flight and records it in the
// job's observed emission order, if it's a new cursor and not empty.
func (s *Store) Start(job, itemCursor string) {
	if itemCursor == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	js := s.jobFor(job)
	if !js.seen[itemCursor] {
		js.seen[itemCursor] = true
		js.order = append(js.order, itemCursor)
	}
	js.inFlight[itemCursor] = true
}

// Complete records an item's outcome. On success the cursor is inserted
// into the pending set and the job's prefix is advanced as far as
// contiguous completions (in emission order) allow.
func (s *Store) Complete(job, itemCursor string, ok bool) {
	if itemCursor == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	js := s.jobFor(job)
	delete(js.inFlight, itemCursor)
	if !ok {
		return
	}
	js.completed[itemCursor] = true
	s.compact(js)
}

// compact advances after to the largest prefix of js.order that is
// fully completed, starting just past the current after.
func (s *Store) compact(js *jobState) {
	i := 0
	if js.after != "" {
		for ; i < len(js.order); i++ {
			if js.order[i] == js.after {
				i++
				break
			}
		}
	}
	for ; i < len(js.order); i++ {
		c := js.order[i]
		if !js.completed[c] {
			break
		}
		js.after = c
		delete(js.completed, c)
	}
}

// Completion marks the job's source exhausted with a terminal outcome.
func (s *Store) Completion(job string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobFor(job).done = &Completion{CompletedAt: time.Now(), Err: err}
}

// Flush serializes the job's current resumable state as {v:1,a,p}.
func (s *Store) Flush(job string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	js := s.jobFor(job)
	state := State{V: 1, A: js.after}
	for _, c := range js.order {
		if js.completed[c] {
			state.P = append(state.P, c)
		}
	}
	return state
}

// Restore seeds a job's state from a previously flushed State, e.g. on
// worker startup. Pending cursors are treated as already-seen but not
// yet foldable into the prefix (their predecessors are unknown to this
// process).
func (s *Store) Restore(job string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	js := s.jobFor(job)
	js.after = state.A
	for _, c := range state.P {
		if !js.seen[c] {
			js.seen[c] = true
			js.order = append(js.order, c)
		}
		js.completed[c] = true
	}
}

// ShouldSkip reports whether an item's cursor was already accounted for
// by a restored state: at-or-before after, or present in pending.
func (s *Store) ShouldSkip(job, itemCursor string) bool {
	if itemCursor == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	js := s.jobFor(job)
	if js.after != "" {
		if itemCursor == js.after {
			return true
		}
		for _, c := range js.order {
			if c == itemCursor {
				return true
			}
			if c == js.after {
				break
			}
		}
	}
	return js.completed[itemCursor]
}

// Marshal renders a State as the wire-format JSON string handed to the
// manager.
func (st State) Marshal() (string, error) {
	b, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmarshal parses the wire-format JSON string back into a State.
func Unmarshal(raw string) (State, error) {
	var st State
	if raw == "" {
		return State{V: 1}, nil
	}
	err := json.Unmarshal([]byte(raw), &st)
	return st, err
}
