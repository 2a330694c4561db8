package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendedConcurrencyCapsToAvailableMemory(t *testing.T) {
	stats := MemoryStats{TotalBytes: 16 << 30, AvailableBytes: 12 << 30}
	got := RecommendedConcurrency(stats, 5<<30, 2<<30, 10)
	assert.Equal(t, 2, got) // (12-2)GB / 5GB per item = 2
}

func TestRecommendedConcurrencyNeverBelowOne(t *testing.T) {
	stats := MemoryStats{TotalBytes: 4 << 30, AvailableBytes: 1 << 30}
	got := RecommendedConcurrency(stats, 5<<30, 2<<30, 10)
	assert.Equal(t, 1, got)
}

func TestRecommendedConcurrencyNeverExceedsRequested(t *testing.T) {
	stats := MemoryStats{TotalBytes: 64 << 30, AvailableBytes: 60 << 30}
	got := RecommendedConcurrency(stats, 1<<30, 2<<30, 3)
	assert.Equal(t, 3, got)
}
