package form

// ParameterType is the input widget kind a parameter is collected with.
type ParameterType string

const (
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypeSelect  ParameterType = "select"
)

// Option is one choice of a select parameter.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Parameter describes one input of a calculator or algorithm node.
//
// Every parameter is required unless Optional is set. Optional is used for
// checkbox-style booleans where an absent value reads as "no".
type Parameter struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Type      ParameterType `json:"type" yaml:"type"`
	Unit      string        `json:"unit,omitempty" yaml:"unit,omitempty"`
	Options   []Option      `json:"options,omitempty" yaml:"options,omitempty"`
	Tooltip   string        `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Cacheable bool          `json:"cacheable" yaml:"cacheable"`
	Optional  bool          `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Reference is a literature citation attached to a calculator or algorithm.
type Reference struct {
	Citation string `json:"citation" yaml:"citation"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Number declares a required numeric parameter.
func Number(id, name, unit, tooltip string) Parameter {
	return Parameter{ID: id, Name: name, Type: TypeNumber, Unit: unit, Tooltip: tooltip}
}

// Flag declares an optional boolean parameter (unchecked means false).
func Flag(id, name, tooltip string) Parameter {
	return Parameter{ID: id, Name: name, Type: TypeBoolean, Tooltip: tooltip, Optional: true}
}

// YesNo declares a boolean parameter that must be answered explicitly.
func YesNo(id, name, tooltip string) Parameter {
	return Parameter{ID: id, Name: name, Type: TypeBoolean, Tooltip: tooltip}
}

// Select declares a required select parameter.
func Select(id, name, tooltip string, options ...Option) Parameter {
	return Parameter{ID: id, Name: name, Type: TypeSelect, Tooltip: tooltip, Options: options}
}

// Cached returns a copy of p marked as reusable through the parameter store.
func (p Parameter) Cached() Parameter {
	p.Cacheable = true
	return p
}

// HasOption reports whether value is one of the declared select options.
func (p Parameter) HasOption(value string) bool {
	for _, o := range p.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// FormatValue renders one input for display: numbers with their unit,
// booleans as yes/no and selects by option label.
func FormatValue(p Parameter, in Inputs) string {
	switch p.Type {
	case TypeBoolean:
		if in.Bool(p.ID) {
			return "yes"
		}
		return "no"
	case TypeSelect:
		v := in.String(p.ID)
		for _, o := range p.Options {
			if o.Value == v {
				return o.Label
			}
		}
		return v
	default:
		s := in.String(p.ID)
		if p.Unit != "" {
			s += " " + p.Unit
		}
		return s
	}
}
