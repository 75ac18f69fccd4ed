package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinParses(t *testing.T) {
	templates, err := Builtin()
	require.NoError(t, err)
	require.NotEmpty(t, templates)

	seen := make(map[string]bool)
	for _, tpl := range templates {
		assert.NotEmpty(t, tpl.ID)
		assert.NotEmpty(t, tpl.Name)
		assert.True(t, tpl.IsBuiltin)
		assert.True(t, tpl.IsActive)
		assert.NotEmpty(t, tpl.Panels)
		assert.False(t, seen[tpl.ID], "duplicate builtin template id %s", tpl.ID)
		seen[tpl.ID] = true
	}
}

func TestBuiltinIncludesNodeExporter(t *testing.T) {
	templates, err := Builtin()
	require.NoError(t, err)

	var found bool
	for _, tpl := range templates {
		if tpl.ID == "tpl_node_exporter" {
			found = true
			assert.Equal(t, "Node Exporter", tpl.Name)
			assert.Len(t, tpl.Variables, 2)
		}
	}
	assert.True(t, found)
}
