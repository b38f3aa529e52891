package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/samuelmt/detran-fines/dto"
)

const runIndexKey = "consultations:index"

// RedisStore persists runs as JSON values plus a sorted-set index scored by
// creation time, so history listing stays newest-first.
type RedisStore struct {
	c *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		c: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func runKey(id string) string {
	return "consultation:" + id
}

func (s *RedisStore) CreateRun(ctx context.Context, run *dto.ConsultationRun) error {
	if err := s.setRun(ctx, run); err != nil {
		return err
	}
	err := s.c.ZAdd(ctx, runIndexKey, redis.Z{
		Score:  float64(run.CreatedAt.UnixNano()),
		Member: run.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}
	return nil
}

func (s *RedisStore) UpdateRun(ctx context.Context, run *dto.ConsultationRun) error {
	exists, err := s.c.Exists(ctx, runKey(run.ID)).Result()
	if err != nil {
		return fmt.Errorf("redis exists: %w", err)
	}
	if exists == 0 {
		return dto.ErrRunNotFound
	}
	return s.setRun(ctx, run)
}

func (s *RedisStore) GetRun(ctx context.Context, id string) (*dto.ConsultationRun, error) {
	data, err := s.c.Get(ctx, runKey(id)).Bytes()
	if err == redis.Nil {
		return nil, dto.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var run dto.ConsultationRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return &run, nil
}

func (s *RedisStore) ListRuns(ctx context.Context) ([]*dto.ConsultationRun, error) {
	ids, err := s.c.ZRevRange(ctx, runIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange: %w", err)
	}

	runs := make([]*dto.ConsultationRun, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(ctx, id)
		if err == dto.ErrRunNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *RedisStore) ListFines(ctx context.Context, runID string) ([]dto.FineRecord, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return run.Fines, nil
}

func (s *RedisStore) CountRuns(ctx context.Context) (int, error) {
	n, err := s.c.ZCard(ctx, runIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcard: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) setRun(ctx context.Context, run *dto.ConsultationRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}
	if err := s.c.Set(ctx, runKey(run.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
