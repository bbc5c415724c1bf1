package calculator

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// Observer receives one event per successful calculation.
type Observer interface {
	ObserveCalculation(calculatorID string, severity string)
}

// ParameterCache supplies and keeps values of cacheable parameters between
// calculators of the same session.
type ParameterCache interface {
	Values(ctx context.Context, owner string, ids []string) (form.Inputs, error)
	Remember(ctx context.Context, owner string, params []form.Parameter, in form.Inputs) error
}

type Service struct {
	reg      *Registry
	logger   zerolog.Logger
	observer Observer
	cache    ParameterCache
}

func NewService(reg *Registry, logger zerolog.Logger) *Service {
	return &Service{reg: reg, logger: logger}
}

// WithObserver attaches a metrics observer.
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// WithParameterCache attaches the parameter store used for prefill.
func (s *Service) WithParameterCache(c ParameterCache) *Service {
	s.cache = c
	return s
}

func (s *Service) List(category string) []*Definition {
	return s.reg.List(category)
}

func (s *Service) Categories() []string {
	return s.reg.Categories()
}

func (s *Service) Get(id string) (*Definition, error) {
	return s.reg.Get(id)
}

// Calculate validates inputs against the calculator's declared parameters and
// domain constraints, then runs its formula.
func (s *Service) Calculate(ctx context.Context, id string, in form.Inputs) (*Result, error) {
	def, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	if err := form.RequirePresent(def.Parameters, in); err != nil {
		return nil, err
	}
	if err := def.CheckConstraints(in); err != nil {
		return nil, err
	}

	res := def.Calculate(in)
	if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
		return nil, fmt.Errorf("%s: %w", def.ID, ErrNonFiniteScore)
	}

	if s.observer != nil {
		s.observer.ObserveCalculation(def.ID, string(res.Severity))
	}
	s.logger.Debug().
		Str("calculator", def.ID).
		Float64("score", res.Score).
		Str("severity", string(res.Severity)).
		Msg("calculation complete")
	return &res, nil
}

// Prefill returns the owner's stored values for the calculator's cacheable
// parameters. Without a parameter cache it returns an empty set.
func (s *Service) Prefill(ctx context.Context, owner, id string) (form.Inputs, error) {
	def, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return form.Inputs{}, nil
	}
	vals, err := s.cache.Values(ctx, owner, def.CacheableIDs())
	if err != nil {
		return nil, fmt.Errorf("prefill %s: %w", id, err)
	}
	return vals, nil
}

// Remember stores the cacheable inputs of a calculation for later prefill.
func (s *Service) Remember(ctx context.Context, owner, id string, in form.Inputs) error {
	def, err := s.reg.Get(id)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Remember(ctx, owner, def.Parameters, in); err != nil {
		return fmt.Errorf("remember %s inputs: %w", id, err)
	}
	return nil
}

// ScreeningWarning is raised by a disqualifying answer.
type ScreeningWarning struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Message    string `json:"message"`
}

// ScreeningOutcome summarizes the screening answers. Eligible is advisory;
// calculation is never blocked by screening.
type ScreeningOutcome struct {
	Eligible   bool               `json:"eligible"`
	Warnings   []ScreeningWarning `json:"warnings"`
	Unanswered []string           `json:"unanswered,omitempty"`
}

// Screen evaluates yes/no answers to the calculator's screening questions.
func (s *Service) Screen(id string, answers map[string]bool) (*ScreeningOutcome, error) {
	def, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	out := &ScreeningOutcome{Eligible: true, Warnings: []ScreeningWarning{}}
	for _, q := range def.Screening {
		yes, answered := answers[q.ID]
		if !answered {
			out.Unanswered = append(out.Unanswered, q.ID)
			continue
		}
		if !yes && q.DisqualifiesOnNo {
			out.Eligible = false
			out.Warnings = append(out.Warnings, ScreeningWarning{
				QuestionID: q.ID,
				Question:   q.Question,
				Message:    q.Warning,
			})
		}
	}
	return out, nil
}
