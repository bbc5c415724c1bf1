package form

import (
	"fmt"
	"strings"
)

// MissingInputError lists the parameters that had no value when a
// calculation or transition was attempted.
type MissingInputError struct {
	Params []Parameter
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required inputs: %s", strings.Join(e.Names(), ", "))
}

// Names returns the display names of the missing parameters.
func (e *MissingInputError) Names() []string {
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = p.Name
	}
	return names
}

// IDs returns the ids of the missing parameters.
func (e *MissingInputError) IDs() []string {
	ids := make([]string, len(e.Params))
	for i, p := range e.Params {
		ids[i] = p.ID
	}
	return ids
}

// Missing returns the required parameters of params that have no value in in,
// in declaration order.
func Missing(params []Parameter, in Inputs) []Parameter {
	var out []Parameter
	for _, p := range params {
		if p.Optional {
			continue
		}
		if !in.Has(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// RequirePresent returns a *MissingInputError when any required parameter of
// params is absent from in.
func RequirePresent(params []Parameter, in Inputs) error {
	if missing := Missing(params, in); len(missing) > 0 {
		return &MissingInputError{Params: missing}
	}
	return nil
}
