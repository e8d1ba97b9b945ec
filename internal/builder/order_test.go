package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graph(mods ...*Module) map[string]*Module {
	out := make(map[string]*Module, len(mods))
	for _, mod := range mods {
		out[mod.Name] = mod
	}
	return out
}

func TestResolveOrder(t *testing.T) {
	mods := graph(
		newTestModule("Core", StaticLib),
		newTestModule("Render", StaticLib, "Core"),
		newTestModule("Audio", StaticLib, "Core"),
		newTestModule("Main", EntryPoint, "Render", "Audio"),
	)

	order, err := ResolveOrder(mods, []string{"Main"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Core", "Render", "Audio", "Main"}, order)
	assert.NoError(t, ValidateOrder(order, mods))

	// roots are sorted, shared dependencies are visited once
	order, err = ResolveOrder(mods, []string{"Render", "Audio", "Main", "Core"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Core", "Audio", "Render", "Main"}, order)
}

func TestResolveOrder_Cycle(t *testing.T) {
	mods := graph(
		newTestModule("A", StaticLib, "B"),
		newTestModule("B", StaticLib, "C"),
		newTestModule("C", StaticLib, "A"),
	)

	_, err := ResolveOrder(mods, []string{"A"})
	require.ErrorIs(t, err, ErrGraph)
	assert.Contains(t, err.Error(), "dependency cycle detected: A -> B -> C -> A")
}

func TestResolveOrder_UnknownDependency(t *testing.T) {
	mods := graph(newTestModule("Main", EntryPoint, "Ghost"))

	_, err := ResolveOrder(mods, []string{"Main"})
	require.ErrorIs(t, err, ErrGraph)
	assert.Contains(t, err.Error(), `module "Main" lists a non-existent dependency: "Ghost"`)

	_, err = ResolveOrder(mods, []string{"Ghost"})
	assert.ErrorIs(t, err, ErrGraph)
}

func TestValidateOrder(t *testing.T) {
	mods := graph(
		newTestModule("Core", StaticLib),
		newTestModule("Main", EntryPoint, "Core"),
	)

	for _, tc := range []struct {
		name  string
		order []string
		want  string
	}{
		{"reversed", []string{"Main", "Core"}, "ordered before its dependency"},
		{"duplicate", []string{"Core", "Core", "Main"}, "appears twice"},
		{"missing dependency", []string{"Main"}, "not in the build order"},
		{"unknown", []string{"Core", "Ghost"}, "unknown module"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOrder(tc.order, mods)
			require.ErrorIs(t, err, ErrGraph)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	assert.NoError(t, ValidateOrder([]string{"Core", "Main"}, mods))
	assert.NoError(t, ValidateOrder(nil, mods))
}
