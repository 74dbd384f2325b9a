package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
	"github.com/cognicore/qaprep/pkg/qaprep/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// RecordRun implements store.Store.
func (s *Store) RecordRun(ctx context.Context, r store.Run) (store.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r = store.Prepare(r)
	if _, ok := s.runs[r.ID]; ok {
		return store.Run{}, fmt.Errorf("insert run %s: duplicate id", r.ID)
	}
	s.runs[r.ID] = copyRun(r)
	return r, nil
}

// FinishRun implements store.Store.
func (s *Store) FinishRun(ctx context.Context, id string, res store.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("finish run %s: %w", id, internalerr.ErrNotFound)
	}
	s.runs[id] = store.Finish(r, res, time.Now().UTC())
	return nil
}

// AddStage implements store.Store.
func (s *Store) AddStage(ctx context.Context, runID string, st store.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("add stage to run %s: %w", runID, internalerr.ErrNotFound)
	}
	r.Stages = append(r.Stages, st)
	s.runs[runID] = r
	return nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, false, nil
	}
	return copyRun(r), true, nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, copyRun(r))
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func copyRun(r store.Run) store.Run {
	r.Columns = append([]string(nil), r.Columns...)
	r.Stages = append([]store.Stage(nil), r.Stages...)
	return r
}
