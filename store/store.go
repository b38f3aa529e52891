package store

import (
	"context"

	"github.com/samuelmt/detran-fines/dto"
)

// Store persists consultation runs, their per-vehicle statuses and fine
// records. Backends are interchangeable; the aggregator keeps its own
// in-flight state and only writes snapshots here.
type Store interface {
	CreateRun(ctx context.Context, run *dto.ConsultationRun) error
	UpdateRun(ctx context.Context, run *dto.ConsultationRun) error
	GetRun(ctx context.Context, id string) (*dto.ConsultationRun, error)
	// ListRuns returns every known run, newest first.
	ListRuns(ctx context.Context) ([]*dto.ConsultationRun, error)
	// ListFines returns the fine records of one run.
	ListFines(ctx context.Context, runID string) ([]dto.FineRecord, error)
	CountRuns(ctx context.Context) (int, error)
}
