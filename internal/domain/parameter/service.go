package parameter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/medcalc/medcalc/internal/domain/form"
)

var ErrInvalidParameter = errors.New("invalid parameter")

type Service struct {
	store  Store
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) Set(ctx context.Context, owner string, p StoredParameter) (*StoredParameter, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidParameter)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidParameter)
	}
	if p.Value == nil {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidParameter)
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	p.CreatedAt = s.now().UTC()
	if err := s.store.Set(ctx, owner, p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Get(ctx context.Context, owner, id string) (*StoredParameter, error) {
	return s.store.Get(ctx, owner, id)
}

// Remove deletes id. Removing an id that is not stored is not an error.
func (s *Service) Remove(ctx context.Context, owner, id string) error {
	return s.store.Remove(ctx, owner, id)
}

func (s *Service) Clear(ctx context.Context, owner string) error {
	return s.store.Clear(ctx, owner)
}

func (s *Service) List(ctx context.Context, owner string) ([]StoredParameter, error) {
	return s.store.List(ctx, owner)
}

// Values returns the stored values for ids as calculator inputs. Ids with
// nothing stored are left out.
func (s *Service) Values(ctx context.Context, owner string, ids []string) (form.Inputs, error) {
	out := form.Inputs{}
	if owner == "" || len(ids) == 0 {
		return out, nil
	}
	all, err := s.store.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for _, p := range all {
		if wanted[p.ID] {
			out[p.ID] = p.Value
		}
	}
	return out, nil
}

// Remember stores every cacheable parameter present in in, so the next form
// can be prefilled.
func (s *Service) Remember(ctx context.Context, owner string, params []form.Parameter, in form.Inputs) error {
	for _, p := range params {
		if !p.Cacheable || !in.Has(p.ID) {
			continue
		}
		v, _ := in.Lookup(p.ID)
		if _, err := s.Set(ctx, owner, StoredParameter{ID: p.ID, Name: p.Name, Value: v, Unit: p.Unit}); err != nil {
			return err
		}
	}
	return nil
}

// Purge sweeps idle sessions when the backing store needs it.
func (s *Service) Purge(ctx context.Context) (int, error) {
	purger, ok := s.store.(Purger)
	if !ok {
		return 0, nil
	}
	return purger.Purge(ctx, s.now())
}

// RunJanitor purges idle sessions every interval until ctx is cancelled.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) error {
	if _, ok := s.store.(Purger); !ok || interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := s.Purge(ctx)
			if err != nil {
				s.logger.Warn().Err(err).Msg("parameter purge failed")
				continue
			}
			if n > 0 {
				s.logger.Info().Int("sessions", n).Msg("purged idle parameter sessions")
			}
		}
	}
}
