package parameter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medcalc/medcalc/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PGStore keeps session parameters in the stored_parameter table. Rows
// carry an expires_at that every read or write of the owner pushes forward.
// Expired rows are invisible to reads and deleted by Purge. Insertion order is the seq column, reassigned on
// overwrite.
type PGStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

func NewPGStore(pool *pgxpool.Pool, ttl time.Duration) *PGStore {
	return &PGStore{pool: pool, ttl: ttl, now: time.Now}
}

func (s *PGStore) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func (s *PGStore) expiry() *time.Time {
	if s.ttl <= 0 {
		return nil
	}
	t := s.now().Add(s.ttl)
	return &t
}

// touch pushes the expiry of owner's live rows forward.
func (s *PGStore) touch(ctx context.Context, owner string) error {
	expires := s.expiry()
	if expires == nil {
		return nil
	}
	_, err := s.conn(ctx).Exec(ctx, `UPDATE stored_parameter SET expires_at = $2
		WHERE owner = $1 AND expires_at > $3`, owner, expires, s.now())
	if err != nil {
		return fmt.Errorf("refresh session expiry: %w", err)
	}
	return nil
}

const parameterCols = `param_id, name, value, unit, created_at`

func scanParameter(row pgx.Row) (*StoredParameter, error) {
	var p StoredParameter
	var raw []byte
	if err := row.Scan(&p.ID, &p.Name, &raw, &p.Unit, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.Value); err != nil {
		return nil, fmt.Errorf("decode parameter %s: %w", p.ID, err)
	}
	return &p, nil
}

func (s *PGStore) Set(ctx context.Context, owner string, p StoredParameter) error {
	raw, err := json.Marshal(p.Value)
	if err != nil {
		return fmt.Errorf("encode parameter %s: %w", p.ID, err)
	}
	expires := s.expiry()
	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		c := s.conn(ctx)
		_, err := c.Exec(ctx, `
			INSERT INTO stored_parameter (owner, param_id, name, value, unit, created_at, expires_at, seq)
			VALUES ($1, $2, $3, $4, $5, $6, $7, nextval('stored_parameter_seq'))
			ON CONFLICT (owner, param_id) DO UPDATE SET
				name = EXCLUDED.name, value = EXCLUDED.value, unit = EXCLUDED.unit,
				created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at,
				seq = EXCLUDED.seq`,
			owner, p.ID, p.Name, raw, p.Unit, p.CreatedAt, expires)
		if err != nil {
			return fmt.Errorf("upsert parameter %s: %w", p.ID, err)
		}
		if _, err := c.Exec(ctx, `UPDATE stored_parameter SET expires_at = $2 WHERE owner = $1`, owner, expires); err != nil {
			return fmt.Errorf("refresh session expiry: %w", err)
		}
		return nil
	})
}

func (s *PGStore) Get(ctx context.Context, owner, id string) (*StoredParameter, error) {
	q := fmt.Sprintf(`SELECT %s FROM stored_parameter
		WHERE owner = $1 AND param_id = $2 AND (expires_at IS NULL OR expires_at > $3)`, parameterCols)
	p, err := scanParameter(s.conn(ctx).QueryRow(ctx, q, owner, id, s.now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.touch(ctx, owner); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PGStore) Remove(ctx context.Context, owner, id string) error {
	_, err := s.conn(ctx).Exec(ctx, `DELETE FROM stored_parameter WHERE owner = $1 AND param_id = $2`, owner, id)
	if err != nil {
		return fmt.Errorf("delete parameter %s: %w", id, err)
	}
	return nil
}

func (s *PGStore) Clear(ctx context.Context, owner string) error {
	_, err := s.conn(ctx).Exec(ctx, `DELETE FROM stored_parameter WHERE owner = $1`, owner)
	if err != nil {
		return fmt.Errorf("clear parameters: %w", err)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, owner string) ([]StoredParameter, error) {
	q := fmt.Sprintf(`SELECT %s FROM stored_parameter
		WHERE owner = $1 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY seq`, parameterCols)
	rows, err := s.conn(ctx).Query(ctx, q, owner, s.now())
	if err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	defer rows.Close()

	out := []StoredParameter{}
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) > 0 {
		if err := s.touch(ctx, owner); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Purge deletes expired rows.
func (s *PGStore) Purge(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM stored_parameter WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge parameters: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
