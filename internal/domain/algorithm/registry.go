package algorithm

import (
	"fmt"
	"sort"
)

// Registry is the catalog of pathways, kept in declaration order.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry validates and registers defs.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if err := Validate(d); err != nil {
			return nil, fmt.Errorf("algorithm %s: %w", d.ID, err)
		}
		if _, dup := r.defs[d.ID]; dup {
			return nil, fmt.Errorf("algorithm: duplicate id %q", d.ID)
		}
		r.defs[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

// DefaultRegistry returns the built-in pathways. It panics if one of them is
// malformed since they are compiled in.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		ChestPainTriage(),
		StrokeWorkup(),
		AFAnticoagulation(),
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Get looks up a pathway by id.
func (r *Registry) Get(id string) (*Definition, error) {
	d, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlgorithmNotFound, id)
	}
	return d, nil
}

// List returns pathways in declaration order, optionally filtered by category.
func (r *Registry) List(category string) []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, id := range r.order {
		d := r.defs[id]
		if category != "" && d.Category != category {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (r *Registry) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range r.defs {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	sort.Strings(out)
	return out
}

func nodeMap(nodes ...*Node) map[string]*Node {
	m := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

func when(text string) *Condition {
	return MustParseCondition(text)
}
