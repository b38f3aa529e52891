package store

import (
	"context"
	"sort"
	"sync"

	"github.com/samuelmt/detran-fines/dto"
)

// MemoryStore keeps runs in a process-local map. Snapshots are copied on
// the way in and out so callers never share slices with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*dto.ConsultationRun
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string]*dto.ConsultationRun),
	}
}

func (s *MemoryStore) CreateRun(_ context.Context, run *dto.ConsultationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryStore) UpdateRun(_ context.Context, run *dto.ConsultationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return dto.ErrRunNotFound
	}
	s.runs[run.ID] = cloneRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (*dto.ConsultationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, dto.ErrRunNotFound
	}
	return cloneRun(run), nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]*dto.ConsultationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]*dto.ConsultationRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, cloneRun(run))
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs, nil
}

func (s *MemoryStore) ListFines(ctx context.Context, runID string) ([]dto.FineRecord, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return run.Fines, nil
}

func (s *MemoryStore) CountRuns(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs), nil
}

func cloneRun(run *dto.ConsultationRun) *dto.ConsultationRun {
	clone := *run
	clone.Vehicles = append([]dto.VehicleStatus(nil), run.Vehicles...)
	clone.Fines = append([]dto.FineRecord(nil), run.Fines...)
	return &clone
}
