package parameter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps one hash of JSON-encoded parameters per owner plus a list
// holding the insertion order. Both keys share the session TTL, refreshed
// on every write.
type RedisStore struct {
	c      redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(c redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "medcalc:params"
	}
	return &RedisStore{c: c, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) dataKey(owner string) string  { return s.prefix + ":" + owner }
func (s *RedisStore) orderKey(owner string) string { return s.prefix + ":" + owner + ":order" }

func (s *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, owner string) {
	if s.ttl > 0 {
		pipe.Expire(ctx, s.dataKey(owner), s.ttl)
		pipe.Expire(ctx, s.orderKey(owner), s.ttl)
	}
}

// touch slides the idle timeout after a read.
func (s *RedisStore) touch(ctx context.Context, owner string) error {
	if s.ttl <= 0 {
		return nil
	}
	_, err := s.c.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		s.expire(ctx, pipe, owner)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis refresh parameter ttl: %w", err)
	}
	return nil
}

func (s *RedisStore) Set(ctx context.Context, owner string, p StoredParameter) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode parameter %s: %w", p.ID, err)
	}
	_, err = s.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey(owner), p.ID, raw)
		pipe.LRem(ctx, s.orderKey(owner), 0, p.ID)
		pipe.RPush(ctx, s.orderKey(owner), p.ID)
		s.expire(ctx, pipe, owner)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set parameter %s: %w", p.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, owner, id string) (*StoredParameter, error) {
	raw, err := s.c.HGet(ctx, s.dataKey(owner), id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get parameter %s: %w", id, err)
	}
	var p StoredParameter
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode parameter %s: %w", id, err)
	}
	if err := s.touch(ctx, owner); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisStore) Remove(ctx context.Context, owner, id string) error {
	_, err := s.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.dataKey(owner), id)
		pipe.LRem(ctx, s.orderKey(owner), 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis remove parameter %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, owner string) error {
	if err := s.c.Del(ctx, s.dataKey(owner), s.orderKey(owner)).Err(); err != nil {
		return fmt.Errorf("redis clear parameters: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, owner string) ([]StoredParameter, error) {
	ids, err := s.c.LRange(ctx, s.orderKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list parameter order: %w", err)
	}
	out := make([]StoredParameter, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	vals, err := s.c.HMGet(ctx, s.dataKey(owner), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list parameters: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var p StoredParameter
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, fmt.Errorf("decode parameter %s: %w", ids[i], err)
		}
		out = append(out, p)
	}
	if err := s.touch(ctx, owner); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping checks connectivity for the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.c.Ping(ctx).Err()
}
