package topic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestMessageRoundTripPreservesFields is the round-trip law from the
// testable properties: serialize/deserialize must preserve Args, Tags,
// and Metadata verbatim, including nil values.
func TestMessageRoundTripPreservesFields(t *testing.T) {
	msg := Message{
		ID:   "m-1",
		Args: map[string]any{"count": float64(3), "note": nil},
		Tags: map[string]string{"inventory.name": "a"},
		Metadata: map[string]map[string]any{
			"trace": {"span_id": "abc", "sampled": nil},
		},
	}

	b, err := json.Marshal(msg)
	assert.NoError(t, err)

	var got Message
	assert.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, msg, got)
}
