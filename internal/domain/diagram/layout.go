// Package diagram assigns coordinates to pathway graphs for flowchart
// rendering. Levels come from a breadth-first walk from the start node and
// nodes within a level are spaced evenly across the width.
package diagram

// Node is a vertex of the graph to lay out.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// Edge is a directed edge, in branch order for its source node.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Graph is the input to Layout. Nodes must be listed in a stable order; it
// decides placement of nodes unreachable from Start.
type Graph struct {
	Start string `json:"start"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Options controls spacing. Zero values take the defaults.
type Options struct {
	Width       float64 `json:"width"`
	LevelHeight float64 `json:"level_height"`
	Margin      float64 `json:"margin"`
}

const (
	DefaultWidth       = 800
	DefaultLevelHeight = 120
	DefaultMargin      = 40
)

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.LevelHeight <= 0 {
		o.LevelHeight = DefaultLevelHeight
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	return o
}

// PlacedNode is a node with its computed position.
type PlacedNode struct {
	Node
	Level   int     `json:"level"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visited bool    `json:"visited"`
	Current bool    `json:"current"`
}

// PlacedEdge is an edge marked with whether the path crossed it.
type PlacedEdge struct {
	Edge
	Traversed bool `json:"traversed"`
}

// Diagram is the laid-out graph.
type Diagram struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Levels int          `json:"levels"`
	Nodes  []PlacedNode `json:"nodes"`
	Edges  []PlacedEdge `json:"edges"`
}

// Layout places every node of g. Each node's level is its minimum edge
// distance from g.Start; nodes that cannot be reached go one level below the
// deepest reachable level. Within a level nodes keep their discovery order.
// path marks visited nodes and traversed edges; its last entry is current.
func Layout(g Graph, path []string, opts Options) Diagram {
	opts = opts.withDefaults()

	byID := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}
	out := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.From] = append(out[e.From], e.To)
	}

	level := make(map[string]int, len(g.Nodes))
	var order []string
	if _, ok := byID[g.Start]; ok {
		level[g.Start] = 0
		order = append(order, g.Start)
		for i := 0; i < len(order); i++ {
			id := order[i]
			for _, next := range out[id] {
				if _, seen := level[next]; seen {
					continue
				}
				if _, ok := byID[next]; !ok {
					continue
				}
				level[next] = level[id] + 1
				order = append(order, next)
			}
		}
	}

	deepest := -1
	for _, l := range level {
		if l > deepest {
			deepest = l
		}
	}
	for _, n := range g.Nodes {
		if _, ok := level[n.ID]; !ok {
			level[n.ID] = deepest + 1
			order = append(order, n.ID)
		}
	}

	rows := map[int][]string{}
	levels := 0
	for _, id := range order {
		l := level[id]
		rows[l] = append(rows[l], id)
		if l+1 > levels {
			levels = l + 1
		}
	}

	visited := make(map[string]bool, len(path))
	for _, id := range path {
		visited[id] = true
	}
	current := ""
	if len(path) > 0 {
		current = path[len(path)-1]
	}
	traversed := map[[2]string]bool{}
	for i := 1; i < len(path); i++ {
		traversed[[2]string{path[i-1], path[i]}] = true
	}

	d := Diagram{
		Width:  opts.Width,
		Height: 2*opts.Margin + float64(max(levels-1, 0))*opts.LevelHeight,
		Levels: levels,
		Nodes:  make([]PlacedNode, 0, len(order)),
		Edges:  make([]PlacedEdge, 0, len(g.Edges)),
	}
	for l := 0; l < levels; l++ {
		row := rows[l]
		step := opts.Width / float64(len(row)+1)
		for i, id := range row {
			d.Nodes = append(d.Nodes, PlacedNode{
				Node:    byID[id],
				Level:   l,
				X:       step * float64(i+1),
				Y:       opts.Margin + float64(l)*opts.LevelHeight,
				Visited: visited[id],
				Current: id == current,
			})
		}
	}
	for _, e := range g.Edges {
		d.Edges = append(d.Edges, PlacedEdge{Edge: e, Traversed: traversed[[2]string{e.From, e.To}]})
	}
	return d
}

