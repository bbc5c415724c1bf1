package algorithm

import (
	"fmt"
	"strings"
)

// ValidationError lists every structural problem found in a definition.
type ValidationError struct {
	Problems []string `json:"problems"`
}

func (e *ValidationError) Error() string {
	return "invalid algorithm: " + strings.Join(e.Problems, "; ")
}

// Validate checks the structural rules a pathway must satisfy before it can
// be traversed: branch targets resolve, exactly one node is unreachable from
// any branch and it is the start node, result nodes end the pathway, every
// other node can leave, and every condition is well formed and only reads
// inputs some node collects.
func Validate(def *Definition) error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if def == nil {
		return &ValidationError{Problems: []string{"definition is empty"}}
	}
	if def.ID == "" {
		add("id is required")
	}
	if len(def.Nodes) == 0 {
		add("at least one node is required")
		return &ValidationError{Problems: problems}
	}
	if def.StartNodeID == "" {
		add("start_node_id is required")
	} else if def.Nodes[def.StartNodeID] == nil {
		add("start node %q does not exist", def.StartNodeID)
	}

	fields := map[string]bool{}
	for _, p := range def.Parameters() {
		fields[p.ID] = true
	}

	incoming := map[string]int{}
	for _, id := range def.NodeIDs() {
		n := def.Nodes[id]
		if n == nil {
			add("node %q is empty", id)
			continue
		}
		if n.ID != "" && n.ID != id {
			add("node %q declares id %q", id, n.ID)
		}
		if !n.Type.Valid() {
			add("node %q has unknown type %q", id, n.Type)
		}
		if n.Type == NodeResult && len(n.Branches) > 0 {
			add("result node %q must not have branches", id)
		}
		if n.Type != NodeResult && len(n.Branches) == 0 {
			add("node %q has no branches", id)
		}
		for i, b := range n.Branches {
			if def.Nodes[b.Target] == nil {
				add("node %q branch %d targets unknown node %q", id, i+1, b.Target)
			} else {
				incoming[b.Target]++
			}
			if err := b.When.Check(); err != nil {
				add("node %q branch %d: %v", id, i+1, err)
				continue
			}
			for _, f := range b.When.Fields() {
				if !fields[f] {
					add("node %q branch %d reads %q, which no node collects", id, i+1, f)
				}
			}
		}
	}

	var roots []string
	for _, id := range def.NodeIDs() {
		if incoming[id] == 0 {
			roots = append(roots, id)
		}
	}
	switch {
	case len(roots) == 0:
		add("every node has an incoming branch; the start node must have none")
	case len(roots) > 1:
		add("nodes without incoming branches: %s; only the start node may have none", strings.Join(roots, ", "))
	case def.StartNodeID != "" && roots[0] != def.StartNodeID:
		add("node %q has no incoming branches but the start node is %q", roots[0], def.StartNodeID)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
