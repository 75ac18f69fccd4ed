package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	id := NewID(DashboardPrefix)
	assert.True(t, strings.HasPrefix(id, "dash_"))
	assert.Len(t, id, len(DashboardPrefix)+32)

	// No two generated IDs collide in practice.
	assert.NotEqual(t, id, NewID(DashboardPrefix))
}

func TestEnsureID(t *testing.T) {
	t.Run("keeps well-formed candidate", func(t *testing.T) {
		assert.Equal(t, "dash_custom1", EnsureID(DashboardPrefix, "dash_custom1"))
	})

	t.Run("keeps candidate without prefix", func(t *testing.T) {
		// Caller-supplied IDs are opaque; they don't need our prefix.
		assert.Equal(t, "my-dashboard", EnsureID(DashboardPrefix, "my-dashboard"))
	})

	t.Run("generates for empty candidate", func(t *testing.T) {
		id := EnsureID(VariablePrefix, "")
		assert.True(t, strings.HasPrefix(id, "var_"))
	})

	t.Run("generates for malformed candidate", func(t *testing.T) {
		id := EnsureID(VariablePrefix, "has space")
		assert.True(t, strings.HasPrefix(id, "var_"))

		id = EnsureID(VariablePrefix, strings.Repeat("x", 200))
		assert.True(t, strings.HasPrefix(id, "var_"))
	})
}

func TestWellFormed(t *testing.T) {
	assert.True(t, WellFormed("var_abc123"))
	assert.False(t, WellFormed(""))
	assert.False(t, WellFormed("a b"))
	assert.False(t, WellFormed("a\tb"))
	assert.False(t, WellFormed(strings.Repeat("x", 129)))
}
