package parameter

import (
	"context"
	"time"
)

// Store keeps stored parameters per owner (a session or user id). List
// returns parameters in insertion order; Set on an existing id replaces the
// value and moves it to the end.
type Store interface {
	Set(ctx context.Context, owner string, p StoredParameter) error
	Get(ctx context.Context, owner, id string) (*StoredParameter, error)
	Remove(ctx context.Context, owner, id string) error
	Clear(ctx context.Context, owner string) error
	List(ctx context.Context, owner string) ([]StoredParameter, error)
}

// Purger is implemented by stores that need an explicit sweep of idle
// sessions. Redis expires keys on its own and does not implement it.
type Purger interface {
	Purge(ctx context.Context, now time.Time) (int, error)
}
