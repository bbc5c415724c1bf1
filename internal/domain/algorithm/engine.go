package algorithm

import (
	"fmt"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// Start returns the id of the node a traversal begins at.
func Start(def *Definition) string {
	return def.StartNodeID
}

// Next resolves the node that follows nodeID for the accumulated inputs. The
// node's required inputs are checked first; then branches are tried in
// declaration order and the first whose condition holds wins.
func Next(def *Definition, nodeID string, in form.Inputs) (string, error) {
	n := def.Node(nodeID)
	if n == nil {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if n.Type == NodeResult {
		return "", fmt.Errorf("%w: %s", ErrTerminalNode, nodeID)
	}
	if err := form.RequirePresent(n.Inputs, in); err != nil {
		return "", err
	}
	for _, b := range n.Branches {
		if b.When.Eval(in) {
			return b.Target, nil
		}
	}
	return "", fmt.Errorf("%s: %w", nodeID, ErrNoMatchingPath)
}

// IsTerminal reports whether nodeID is a result node.
func IsTerminal(def *Definition, nodeID string) bool {
	n := def.Node(nodeID)
	return n != nil && n.Type == NodeResult
}
