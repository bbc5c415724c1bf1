package algorithm

import (
	"fmt"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// Navigator walks one pathway, keeping the visited path and every input
// entered so far. It is not safe for concurrent use.
type Navigator struct {
	def    *Definition
	path   []string
	inputs form.Inputs
}

// NewNavigator positions a navigator at the start node.
func NewNavigator(def *Definition) *Navigator {
	return &Navigator{
		def:    def,
		path:   []string{Start(def)},
		inputs: form.Inputs{},
	}
}

// Definition returns the pathway being walked.
func (n *Navigator) Definition() *Definition { return n.def }

// Current returns the id of the current node.
func (n *Navigator) Current() string { return n.path[len(n.path)-1] }

// CurrentNode returns the current node.
func (n *Navigator) CurrentNode() *Node { return n.def.Node(n.Current()) }

// Path returns a copy of the visited node ids, current node last.
func (n *Navigator) Path() []string {
	out := make([]string, len(n.path))
	copy(out, n.path)
	return out
}

// Inputs returns a copy of the accumulated inputs.
func (n *Navigator) Inputs() form.Inputs { return n.inputs.Clone() }

// Complete reports whether the current node is a result node.
func (n *Navigator) Complete() bool { return IsTerminal(n.def, n.Current()) }

// Submit merges values into the accumulated inputs and advances to the next
// node. On error nothing changes, so the caller can fix the values and submit
// again. The returned record is non-nil exactly when the new node is a result
// node.
func (n *Navigator) Submit(values form.Inputs) (*Record, error) {
	if n.Complete() {
		return nil, fmt.Errorf("%w: %s", ErrTerminalNode, n.Current())
	}
	merged := n.inputs.Merge(values)
	next, err := Next(n.def, n.Current(), merged)
	if err != nil {
		return nil, err
	}
	n.inputs = merged
	n.path = append(n.path, next)
	if n.Complete() {
		rec := n.Record()
		return &rec, nil
	}
	return nil, nil
}

// Back returns to the previous node. Inputs already entered are kept so the
// previous node shows them again.
func (n *Navigator) Back() error {
	if len(n.path) < 2 {
		return ErrAtStart
	}
	n.path = n.path[:len(n.path)-1]
	return nil
}

// CurrentInputs returns the accumulated values for the current node's inputs.
func (n *Navigator) CurrentInputs() form.Inputs {
	out := form.Inputs{}
	node := n.CurrentNode()
	if node == nil {
		return out
	}
	for _, p := range node.Inputs {
		if v, ok := n.inputs.Lookup(p.ID); ok {
			out[p.ID] = v
		}
	}
	return out
}

// Record bundles the path, inputs and terminal node of the traversal so far.
func (n *Navigator) Record() Record {
	return Record{
		AlgorithmID: n.def.ID,
		Path:        n.Path(),
		Inputs:      n.Inputs(),
		Terminal:    n.Current(),
	}
}

// Replay runs steps through a fresh navigator. Each step is the set of values
// submitted at one node. The same steps always produce the same path.
func Replay(def *Definition, steps []form.Inputs) (*Navigator, error) {
	nav := NewNavigator(def)
	for i, step := range steps {
		if _, err := nav.Submit(step); err != nil {
			return nav, fmt.Errorf("step %d at %s: %w", i+1, nav.Current(), err)
		}
	}
	return nav, nil
}
