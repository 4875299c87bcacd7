package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/autofix/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data  map[string][]byte
	order []string
	mu    sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save persists the report in memory.
// Reports are stored encoded so callers cannot mutate stored runs through shared maps.
func (s *Store) Save(ctx context.Context, report *domain.WorkflowReport) error {
	if report == nil || report.RunID == "" {
		return &domain.ValidationError{Field: "run_id", Reason: "must not be empty"}
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[report.RunID]; !ok {
		s.order = append(s.order, report.RunID)
	}
	s.data[report.RunID] = data
	return nil
}

// Load retrieves the report from memory.
func (s *Store) Load(ctx context.Context, runID string) (*domain.WorkflowReport, error) {
	s.mu.RLock()
	data, ok := s.data[runID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRunNotFound
	}

	var report domain.WorkflowReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// List returns stored run IDs, oldest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, len(s.order))
	copy(runs, s.order)
	return runs, nil
}
