package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamond() Graph {
	return Graph{
		Start: "a",
		Nodes: []Node{
			{ID: "a", Label: "A", Kind: "question"},
			{ID: "b", Label: "B", Kind: "question"},
			{ID: "c", Label: "C", Kind: "decision"},
			{ID: "d", Label: "D", Kind: "result"},
			{ID: "e", Label: "E", Kind: "result"},
		},
		Edges: []Edge{
			{From: "a", To: "b", Label: "yes"},
			{From: "a", To: "c", Label: "no"},
			{From: "b", To: "d"},
			{From: "c", To: "d"},
			{From: "c", To: "e"},
		},
	}
}

func placed(d Diagram) map[string]PlacedNode {
	m := map[string]PlacedNode{}
	for _, n := range d.Nodes {
		m[n.ID] = n
	}
	return m
}

func TestLayout_LevelsAreMinimumDepth(t *testing.T) {
	d := Layout(diamond(), nil, Options{})
	nodes := placed(d)

	assert.Equal(t, 3, d.Levels)
	assert.Equal(t, 0, nodes["a"].Level)
	assert.Equal(t, 1, nodes["b"].Level)
	assert.Equal(t, 1, nodes["c"].Level)
	assert.Equal(t, 2, nodes["d"].Level, "d is reachable at depth 2 from both parents")
	assert.Equal(t, 2, nodes["e"].Level)
}

func TestLayout_EvenSpacing(t *testing.T) {
	d := Layout(diamond(), nil, Options{Width: 900, LevelHeight: 100, Margin: 50})
	nodes := placed(d)

	assert.Equal(t, 450.0, nodes["a"].X)
	assert.Equal(t, 300.0, nodes["b"].X)
	assert.Equal(t, 600.0, nodes["c"].X)
	assert.Equal(t, 50.0, nodes["a"].Y)
	assert.Equal(t, 150.0, nodes["b"].Y)
	assert.Equal(t, 250.0, nodes["d"].Y)
	assert.Equal(t, 300.0, d.Height)
}

func TestLayout_DefaultOptions(t *testing.T) {
	d := Layout(diamond(), nil, Options{})
	assert.Equal(t, float64(DefaultWidth), d.Width)
	assert.Equal(t, float64(DefaultMargin), placed(d)["a"].Y)
}

func TestLayout_PathMarksVisitedAndTraversed(t *testing.T) {
	d := Layout(diamond(), []string{"a", "c", "e"}, Options{})
	nodes := placed(d)

	assert.True(t, nodes["a"].Visited)
	assert.True(t, nodes["c"].Visited)
	assert.False(t, nodes["b"].Visited)
	assert.True(t, nodes["e"].Current)
	assert.False(t, nodes["c"].Current)

	traversed := map[string]bool{}
	for _, e := range d.Edges {
		traversed[e.From+">"+e.To] = e.Traversed
	}
	assert.Equal(t, map[string]bool{
		"a>b": false,
		"a>c": true,
		"b>d": false,
		"c>d": false,
		"c>e": true,
	}, traversed)
}

func TestLayout_UnreachableNodesGoBelow(t *testing.T) {
	g := diamond()
	g.Nodes = append(g.Nodes, Node{ID: "orphan", Label: "Orphan", Kind: "result"})

	d := Layout(g, nil, Options{})
	require.Len(t, d.Nodes, 6)
	assert.Equal(t, 3, placed(d)["orphan"].Level)
	assert.Equal(t, 4, d.Levels)
}

func TestLayout_CycleTerminates(t *testing.T) {
	g := Graph{
		Start: "a",
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}},
	}
	d := Layout(g, nil, Options{})
	assert.Equal(t, 2, d.Levels)
	assert.Equal(t, 1, placed(d)["b"].Level)
}
