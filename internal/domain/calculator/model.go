package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/medcalc/medcalc/internal/domain/form"
)

var (
	ErrCalculatorNotFound = errors.New("calculator not found")
	ErrNonFiniteScore     = errors.New("calculation produced a non-finite score")
)

// Severity is the coarse band a score falls into.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityVeryHigh Severity = "very-high"
)

// Result is the output of a calculator.
type Result struct {
	Score          float64                `json:"score"`
	Interpretation string                 `json:"interpretation"`
	Severity       Severity               `json:"severity,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

// Range is one row of a calculator's interpretation table. A nil Max means
// the range is open-ended. Rows that share a boundary are ordered, and the
// boundary belongs to the earlier row unless that row sets MaxExclusive.
// Population selects among alternative tables, such as age-specific cut-offs;
// it is empty when a calculator has a single table.
type Range struct {
	Population     string   `json:"population,omitempty"`
	Min            float64  `json:"min"`
	Max            *float64 `json:"max,omitempty"`
	MaxExclusive   bool     `json:"max_exclusive,omitempty"`
	Interpretation string   `json:"interpretation"`
	Severity       Severity `json:"severity,omitempty"`
}

// below reports whether score does not exceed the range's upper bound.
func (r Range) below(score float64) bool {
	switch {
	case r.Max == nil:
		return true
	case r.MaxExclusive:
		return score < *r.Max
	default:
		return score <= *r.Max
	}
}

// ScreeningQuestion is a yes/no pre-check shown before the form.
type ScreeningQuestion struct {
	ID               string `json:"id"`
	Question         string `json:"question"`
	DisqualifiesOnNo bool   `json:"disqualifies_on_no"`
	Warning          string `json:"warning,omitempty"`
}

// Constraint is a lower bound a numeric parameter must respect for the
// formula to be defined (logarithm, square root or divisor arguments).
type Constraint struct {
	Param     string  `json:"param"`
	Min       float64 `json:"min"`
	Exclusive bool    `json:"exclusive"`
}

func (c Constraint) allows(v float64) bool {
	if c.Exclusive {
		return v > c.Min
	}
	return v >= c.Min
}

func (c Constraint) describe(name string) string {
	if c.Exclusive {
		return fmt.Sprintf("%s must be greater than %g", name, c.Min)
	}
	return fmt.Sprintf("%s must be at least %g", name, c.Min)
}

// Definition is a static calculator: metadata for rendering and validating a
// form plus the pure scoring function.
type Definition struct {
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	Description  string                   `json:"description"`
	Category     string                   `json:"category"`
	Parameters   []form.Parameter         `json:"parameters"`
	Screening    []ScreeningQuestion      `json:"screening,omitempty"`
	Ranges       []Range                  `json:"ranges"`
	IntegerScore bool                     `json:"integer_score"`
	Constraints  []Constraint             `json:"constraints,omitempty"`
	References   []form.Reference         `json:"references,omitempty"`
	Calculate    func(form.Inputs) Result `json:"-"`
}

// Parameter returns the declared parameter with the given id.
func (d *Definition) Parameter(id string) (form.Parameter, bool) {
	for _, p := range d.Parameters {
		if p.ID == id {
			return p, true
		}
	}
	return form.Parameter{}, false
}

// CacheableIDs returns the ids of parameters that may be prefilled from the
// parameter store.
func (d *Definition) CacheableIDs() []string {
	var ids []string
	for _, p := range d.Parameters {
		if p.Cacheable {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Violation is a single failed domain constraint.
type Violation struct {
	Param   form.Parameter `json:"param"`
	Message string         `json:"message"`
}

// DomainError reports inputs for which the formula is undefined.
type DomainError struct {
	Violations []Violation
}

func (e *DomainError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// CheckConstraints validates that numeric parameters hold numbers, that
// select values are declared options, and that d's constraints hold. Absent
// parameters are skipped; presence is checked separately.
func (d *Definition) CheckConstraints(in form.Inputs) error {
	var violations []Violation
	numeric := map[string]bool{}
	for _, p := range d.Parameters {
		if !in.Has(p.ID) {
			continue
		}
		switch p.Type {
		case form.TypeNumber:
			if _, ok := in.Float(p.ID); !ok {
				violations = append(violations, Violation{Param: p, Message: p.Name + " must be a number"})
				continue
			}
			numeric[p.ID] = true
		case form.TypeSelect:
			if p.HasOption(in.String(p.ID)) {
				continue
			}
			values := make([]string, len(p.Options))
			for i, o := range p.Options {
				values[i] = o.Value
			}
			violations = append(violations, Violation{
				Param:   p,
				Message: fmt.Sprintf("%s must be one of %s", p.Name, strings.Join(values, ", ")),
			})
		}
	}
	for _, c := range d.Constraints {
		if !numeric[c.Param] {
			continue
		}
		p, _ := d.Parameter(c.Param)
		v, _ := in.Float(c.Param)
		if !c.allows(v) {
			violations = append(violations, Violation{Param: p, Message: c.describe(p.Name)})
		}
	}
	if len(violations) > 0 {
		return &DomainError{Violations: violations}
	}
	return nil
}
