package algorithm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// Observer receives one event per traversal step. outcome is "advanced",
// "completed", "missing_input" or "no_match".
type Observer interface {
	ObserveTraversal(algorithmID string, outcome string)
}

// ParameterCache supplies stored values of cacheable inputs.
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

// StepView is the state of a traversal after a step.
type StepView struct {
	AlgorithmID string      `json:"algorithm_id"`
	Node        *Node       `json:"node"`
	Path        []string    `json:"path"`
	Inputs      form.Inputs `json:"inputs"`
	Complete    bool        `json:"complete"`
	Record      *Record     `json:"record,omitempty"`
}

func viewOf(nav *Navigator) *StepView {
	v := &StepView{
		AlgorithmID: nav.Definition().ID,
		Node:        nav.CurrentNode(),
		Path:        nav.Path(),
		Inputs:      nav.Inputs(),
		Complete:    nav.Complete(),
	}
	if v.Complete {
		rec := nav.Record()
		v.Record = &rec
	}
	return v
}

// Start returns the first node of the pathway.
func (s *Service) Start(id string) (*StepView, error) {
	def, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	return viewOf(NewNavigator(def)), nil
}

// Next resolves a single transition from nodeID.
func (s *Service) Next(ctx context.Context, id, nodeID string, in form.Inputs) (*StepView, error) {
	def, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	next, err := Next(def, nodeID, in)
	s.observe(def.ID, next, def, err)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("algorithm", def.ID).Str("from", nodeID).Str("to", next).Msg("traversal step")
	v := &StepView{
		AlgorithmID: def.ID,
		Node:        def.Node(next),
		Path:        []string{nodeID, next},
		Inputs:      in,
		Complete:    IsTerminal(def, next),
	}
	if v.Complete {
		v.Record = &Record{AlgorithmID: def.ID, Path: v.Path, Inputs: in, Terminal: next}
	}
	return v, nil
}

// Walk replays steps from the start node. The navigator is returned even on
// error so callers can show where the walk stopped.
func (s *Service) Walk(ctx context.Context, id string, steps []form.Inputs) (*Navigator, error) {
	def, err := s.reg.Get(id)
	if err != nil {
		return nil, err
	}
	nav, err := Replay(def, steps)
	path := nav.Path()
	for _, node := range path[1:] {
		s.observe(def.ID, node, def, nil)
	}
	if err != nil {
		s.observe(def.ID, nav.Current(), def, err)
		return nav, err
	}
	s.logger.Debug().
		Str("algorithm", def.ID).
		Strs("path", nav.Path()).
		Bool("complete", nav.Complete()).
		Msg("traversal replayed")
	return nav, nil
}

// Prefill returns the owner's stored values for the pathway's cacheable inputs.
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

// Remember stores the cacheable inputs entered during a traversal.
func (s *Service) Remember(ctx context.Context, owner, id string, in form.Inputs) error {
	def, err := s.reg.Get(id)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Remember(ctx, owner, def.Parameters(), in); err != nil {
		return fmt.Errorf("remember %s inputs: %w", id, err)
	}
	return nil
}

func (s *Service) observe(id, current string, def *Definition, err error) {
	if s.observer == nil {
		return
	}
	var missing *form.MissingInputError
	switch {
	case err == nil && IsTerminal(def, current):
		s.observer.ObserveTraversal(id, "completed")
	case err == nil:
		s.observer.ObserveTraversal(id, "advanced")
	case errors.As(err, &missing):
		s.observer.ObserveTraversal(id, "missing_input")
	case errors.Is(err, ErrNoMatchingPath):
		s.observer.ObserveTraversal(id, "no_match")
	}
}
