package algorithm

import (
	"errors"
	"sort"

	"github.com/medcalc/medcalc/internal/domain/form"
)

var (
	ErrAlgorithmNotFound = errors.New("algorithm not found")
	ErrNodeNotFound      = errors.New("node not found")
	ErrNoMatchingPath    = errors.New("could not determine next step")
	ErrTerminalNode      = errors.New("node is a result node")
	ErrAtStart           = errors.New("already at the start node")
)

// NodeType is the role a node plays in a pathway.
type NodeType string

const (
	NodeQuestion NodeType = "question"
	NodeDecision NodeType = "decision"
	NodeAction   NodeType = "action"
	NodeResult   NodeType = "result"
)

func (t NodeType) String() string { return string(t) }

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeQuestion, NodeDecision, NodeAction, NodeResult:
		return true
	}
	return false
}

// Branch is one outgoing edge of a node. A nil When always matches, which is
// how an "otherwise" branch is written.
type Branch struct {
	Label  string     `json:"label" yaml:"label"`
	When   *Condition `json:"when,omitempty" yaml:"when,omitempty"`
	Target string     `json:"target" yaml:"target"`
}

// Node is one step of a pathway.
type Node struct {
	ID              string           `json:"id" yaml:"id"`
	Type            NodeType         `json:"type" yaml:"type"`
	Content         string           `json:"content" yaml:"content"`
	Description     string           `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs          []form.Parameter `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Branches        []Branch         `json:"branches,omitempty" yaml:"branches,omitempty"`
	Recommendations []string         `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// Definition is a clinical pathway: a directed graph of nodes entered at
// StartNodeID and left at a result node.
type Definition struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description" yaml:"description"`
	Category    string           `json:"category" yaml:"category"`
	StartNodeID string           `json:"start_node_id" yaml:"start_node_id"`
	Nodes       map[string]*Node `json:"nodes" yaml:"nodes"`
	References  []form.Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

// Node returns the node with id, or nil.
func (d *Definition) Node(id string) *Node {
	return d.Nodes[id]
}

// NodeIDs returns all node ids sorted.
func (d *Definition) NodeIDs() []string {
	ids := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parameters returns every input declared by any node, first declaration
// wins, ordered by node id. Empty nodes are skipped.
func (d *Definition) Parameters() []form.Parameter {
	var out []form.Parameter
	seen := map[string]bool{}
	for _, id := range d.NodeIDs() {
		n := d.Nodes[id]
		if n == nil {
			continue
		}
		for _, p := range n.Inputs {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			out = append(out, p)
		}
	}
	return out
}

// CacheableIDs returns the ids of inputs that may be prefilled from the
// parameter store.
func (d *Definition) CacheableIDs() []string {
	var ids []string
	for _, p := range d.Parameters() {
		if p.Cacheable {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Record is emitted when a traversal reaches a result node.
type Record struct {
	AlgorithmID string      `json:"algorithm_id"`
	Path        []string    `json:"path"`
	Inputs      form.Inputs `json:"inputs"`
	Terminal    string      `json:"terminal"`
}
