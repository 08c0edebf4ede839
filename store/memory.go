package store

import (
	"context"
	"sync"

	"cybershield/types"
)

// MemoryStore is an in-process ReportStore used in tests and when Redis is
// not configured. Reports do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	reports []types.Report // newest first
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(_ context.Context, report types.Report) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	report.ID = s.nextID
	s.reports = append([]types.Report{report}, s.reports...)
	return report.ID, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]types.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.reports) {
		limit = len(s.reports)
	}
	out := make([]types.Report, limit)
	copy(out, s.reports[:limit])
	return out, nil
}
