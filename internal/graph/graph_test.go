package graph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

type strNode string

func (s strNode) ID() string { return string(s) }

func TestAddNodeIsIdempotent(t *testing.T) {
	g := New[strNode]()
	g.AddNode(strNode("a"))
	g.AddNode(strNode("a"))
	assert.Equal(t, 1, g.Len())
}

func TestAddEdgeIsIdempotent(t *testing.T) {
	g := New[strNode]()
	g.AddEdge("a", "b", "k")
	g.AddEdge("a", "b", "k")
	assert.ElementsMatch(t, []string{"b"}, g.NodesFrom("a", "k"))
	assert.ElementsMatch(t, []string{"a"}, g.NodesTo("b", "k"))
}

func TestRemoveNodeCascadesEdges(t *testing.T) {
	g := New[strNode]()
	g.AddNode(strNode("a"))
	g.AddNode(strNode("b"))
	g.AddEdge("a", "b", "k")

	removed := g.RemoveNode("a")
	assert.True(t, removed)
	assert.False(t, g.HasNode("a"))
	assert.Empty(t, g.NodesTo("b", "k"))
	assert.Empty(t, g.NodesFrom("a", "k"))
}

func TestRemoveNodeUnknownIsNoop(t *testing.T) {
	g := New[strNode]()
	assert.False(t, g.RemoveNode("ghost"))
}

func TestReplaceNodesConnectedTo(t *testing.T) {
	g := New[strNode]()
	g.AddEdge("req", "x", "k")
	g.AddEdge("req", "y", "k")
	g.AddEdge("req", "z", "other") // different kind, must survive untouched

	g.ReplaceNodesConnectedTo("req", []string{"y", "w"}, "k")

	got := g.NodesFrom("req", "k")
	sort.Strings(got)
	assert.Equal(t, []string{"w", "y"}, got)
	assert.ElementsMatch(t, []string{"z"}, g.NodesFrom("req", "other"))
}

func TestReplaceNodesConnectedToEmpty(t *testing.T) {
	g := New[strNode]()
	g.AddEdge("req", "x", "k")
	g.ReplaceNodesConnectedTo("req", nil, "k")
	assert.Empty(t, g.NodesFrom("req", "k"))
}

func TestWalkToVisitsEachNodeOnceDespiteCycle(t *testing.T) {
	g := New[strNode]()
	// a -> b -> c -> a (cyclic in-edge relation the contract disallows
	// by convention but the graph must not hang on)
	g.AddEdge("a", "b", "subrequest")
	g.AddEdge("b", "c", "subrequest")
	g.AddEdge("c", "a", "subrequest")

	var visited []string
	g.WalkTo("a", "subrequest", func(id string) { visited = append(visited, id) })

	sort.Strings(visited)
	assert.Equal(t, []string{"b", "c"}, visited)
}

func TestHasEdgeAndRemoveEdge(t *testing.T) {
	g := New[strNode]()
	g.AddEdge("a", "b", "k")
	assert.True(t, g.HasEdge("a", "b", "k"))
	g.RemoveEdge("a", "b", "k")
	assert.False(t, g.HasEdge("a", "b", "k"))
}

func TestEdgesEnumeratesEveryEdgeOnce(t *testing.T) {
	g := New[strNode]()
	g.AddEdge("a", "b", "k")
	g.AddEdge("a", "b", "k")
	g.AddEdge("b", "c", "other")

	assert.ElementsMatch(t, []Edge{
		{From: "a", To: "b", Kind: "k"},
		{From: "b", To: "c", Kind: "other"},
	}, g.Edges())
}
