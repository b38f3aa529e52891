package store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelmt/detran-fines/dto"
)

func TestRedisStoreCRUD(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr())
	ctx := context.Background()

	run := testRun("run-1", time.Now())
	require.NoError(t, s.CreateRun(ctx, run))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Len(t, got.Vehicles, 1)
	assert.Len(t, got.Fines, 1)

	got.Status = dto.StatusCompleted
	got.TotalFines = 1
	require.NoError(t, s.UpdateRun(ctx, got))

	updated, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, dto.StatusCompleted, updated.Status)
	assert.Equal(t, 1, updated.TotalFines)

	count, err := s.CountRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRedisStoreNotFound(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr())
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, dto.ErrRunNotFound)

	err = s.UpdateRun(ctx, testRun("missing", time.Now()))
	assert.ErrorIs(t, err, dto.ErrRunNotFound)

	_, err = s.ListFines(ctx, "missing")
	assert.ErrorIs(t, err, dto.ErrRunNotFound)
}

func TestRedisStoreListNewestFirst(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr())
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, s.CreateRun(ctx, testRun("old", base.Add(-time.Hour))))
	require.NoError(t, s.CreateRun(ctx, testRun("new", base)))

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)
}
