package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khulnasoft/DataLineup/errors"
)

func TestResolvePicksHighestSatisfyingVersion(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("topic", "memory-topic", "1.0.0", func(opts map[string]any) (any, error) {
		return "v1", nil
	}))
	require.NoError(t, r.Register("topic", "memory-topic", "1.2.0", func(opts map[string]any) (any, error) {
		return "v1.2", nil
	}))
	require.NoError(t, r.Register("topic", "memory-topic", "2.0.0", func(opts map[string]any) (any, error) {
		return "v2", nil
	}))

	got, err := r.Resolve("topic", "memory-topic", "^1.0", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1.2", got)
}

func TestResolveUnknownTypeFails(t *testing.T) {
	r := New()
	_, err := r.Resolve("topic", "nonexistent", "", nil)
	assert.True(t, errors.IsKind(err, errors.KindConfigurationInvalid))
}

func TestResolveKnownNoFactoryTypeDistinctError(t *testing.T) {
	r := New()
	r.RegisterKnownType("topic", "amqp")

	_, err := r.Resolve("topic", "amqp", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external collaborator")
}

func TestResolveNoVersionSatisfiesConstraint(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("topic", "memory-topic", "1.0.0", func(opts map[string]any) (any, error) {
		return "v1", nil
	}))
	_, err := r.Resolve("topic", "memory-topic", "^2.0", nil)
	assert.True(t, errors.IsKind(err, errors.KindConfigurationInvalid))
}
