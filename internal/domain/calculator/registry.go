package calculator

import (
	"fmt"
	"sort"
)

// Registry is the static catalog of calculators, keyed by id and kept in
// declaration order.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry builds a registry. Duplicate ids panic since definitions are
// compiled in.
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.ID]; dup {
			panic(fmt.Sprintf("calculator: duplicate id %q", d.ID))
		}
		r.defs[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r
}

// DefaultRegistry returns the built-in calculator catalog.
func DefaultRegistry() *Registry {
	return NewRegistry(
		HASBLED(),
		CHA2DS2VASc(),
		FIB4(),
		DAS28(),
		Framingham(),
		CVRisk(),
		CombinedCVRisk(),
	)
}

// Get looks up a calculator by id.
func (r *Registry) Get(id string) (*Definition, error) {
	d, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCalculatorNotFound, id)
	}
	return d, nil
}

// List returns calculators in declaration order, optionally filtered by
// category. An empty category returns all.
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
