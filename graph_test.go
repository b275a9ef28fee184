package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyGraph_AddNode(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", nil)
	g.AddNode("b", []ServiceID{"a"})

	assert.True(t, g.HasNode("a"))
	assert.True(t, g.HasNode("b"))
	assert.False(t, g.HasNode("c"))
	assert.Equal(t, []ServiceID{"a"}, g.GetDependencies("b"))
	assert.Nil(t, g.GetDependencies("c"))
}

func TestDependencyGraph_TopologicalSort(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("c", []ServiceID{"b"})
	g.AddNode("b", []ServiceID{"a"})
	g.AddNode("a", nil)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []ServiceID{"a", "b", "c"}, order)
}

func TestDependencyGraph_PreservesInsertionOrder(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("z", nil)
	g.AddNode("y", nil)
	g.AddNode("x", nil)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []ServiceID{"z", "y", "x"}, order)
}

func TestDependencyGraph_Diamond(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("app", []ServiceID{"left", "right"})
	g.AddNode("left", []ServiceID{"base"})
	g.AddNode("right", []ServiceID{"base"})
	g.AddNode("base", nil)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []ServiceID{"base", "left", "right", "app"}, order)
}

func TestDependencyGraph_Cycle(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", []ServiceID{"b"})
	g.AddNode("b", []ServiceID{"c"})
	g.AddNode("c", []ServiceID{"b"})

	_, err := g.TopologicalSort()
	require.ErrorIs(t, err, ErrDependencyCycle)

	var coded *Error
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, []ServiceID{"b", "c", "b"}, coded.Context["cycle"])
}

func TestDependencyGraph_SelfLoop(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", []ServiceID{"a"})

	_, err := g.TopologicalSort()
	assert.ErrorIs(t, err, ErrDependencyCycle)
}

func TestDependencyGraph_UnknownDependency(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", []ServiceID{"missing"})

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []ServiceID{"a"}, order)
}

func TestDependencyGraph_ReplaceNode(t *testing.T) {
	g := NewDependencyGraph()
	g.AddNode("a", []ServiceID{"b"})
	g.AddNode("b", nil)
	g.AddNode("a", nil)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []ServiceID{"a", "b"}, order)
}
