package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPendingCompaction reproduces the literal scenario: cursors
// ["0",null,"2",null,"4","5","6"] completing as {2,5} -> {0} -> {1,3} -> {6,4}.
// Non-cursor ("null") items never touch the store. Compaction cascades
// through every already-completed entry contiguous with the newly
// completed one in a single call, so completing "0" immediately folds
// in "2" as well rather than waiting for a later step.
func TestPendingCompaction(t *testing.T) {
	s := NewStore()
	for _, c := range []string{"0", "2", "4", "5", "6"} {
		s.Start("job", c)
	}

	s.Complete("job", "2", true)
	s.Complete("job", "5", true)
	assertState(t, s, "job", "", []string{"2", "5"})

	// completing "0" folds in "2" as well, since "2" was already
	// completed and sits right after "0" in emission order
	s.Complete("job", "0", true)
	assertState(t, s, "job", "2", []string{"5"})

	// cursors "1" and "3" were never emitted by this source, so
	// completing them is a no-op; state is unchanged before the next step
	s.Complete("job", "4", true)
	assertState(t, s, "job", "5", nil)

	s.Complete("job", "6", true)
	assertState(t, s, "job", "6", nil)
}

func assertState(t *testing.T, s *Store, job, after string, pending []string) {
	t.Helper()
	st := s.Flush(job)
	assert.Equal(t, after, st.A)
	assert.ElementsMatch(t, pending, st.P)
}

func TestRestoreThenShouldSkip(t *testing.T) {
	s := NewStore()
	s.Restore("job", State{V: 1, A: "2", P: []string{"5"}})

	assert.True(t, s.ShouldSkip("job", "2"))
	assert.True(t, s.ShouldSkip("job", "5"))
	assert.False(t, s.ShouldSkip("job", "6"))
}

func TestCrashResumeScenario(t *testing.T) {
	s := NewStore()
	for _, c := range []string{"1", "2", "3"} {
		s.Start("job", c)
	}
	s.Complete("job", "1", true)
	s.Complete("job", "2", true)
	// "3" still in flight when the worker "crashes"
	flushed := s.Flush("job")
	assert.Equal(t, "2", flushed.A)

	restored := NewStore()
	restored.Restore("job", flushed)
	assert.True(t, restored.ShouldSkip("job", "1"))
	assert.True(t, restored.ShouldSkip("job", "2"))
	assert.False(t, restored.ShouldSkip("job", "3"))
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	st := State{V: 1, A: "3", P: []string{"5", "6"}}
	raw, err := st.Marshal()
	assert.NoError(t, err)

	got, err := Unmarshal(raw)
	assert.NoError(t, err)
	assert.Equal(t, st, got)
}

func TestAfterMonotonicNonDecreasing(t *testing.T) {
	s := NewStore()
	var lastAfter string
	for i := 0; i < 20; i++ {
		c := string(rune('a' + i))
		s.Start("job", c)
		s.Complete("job", c, true)
		st := s.Flush("job")
		assert.GreaterOrEqual(t, st.A, lastAfter)
		lastAfter = st.A
	}
}
