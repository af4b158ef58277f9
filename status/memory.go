package status

import (
	"context"
	"sync"

	"storyreel/types"
)

// MemoryStore is the fallback when redis is not configured. Values are
// copied on the way in and out so callers never share state with the map.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]types.RenderResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]types.RenderResult)}
}

func (s *MemoryStore) Create(_ context.Context, res *types.RenderResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[res.ID] = *res
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*types.RenderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &res, nil
}

func (s *MemoryStore) Advance(_ context.Context, id string, next types.RenderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if err := applyAdvance(&res, next); err != nil {
		return err
	}
	s.records[id] = res
	return nil
}

func (s *MemoryStore) Complete(_ context.Context, id, artifactURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if err := applyAdvance(&res, types.StatusCompleted); err != nil {
		return err
	}
	res.ArtifactURL = artifactURL
	s.records[id] = res
	return nil
}

func (s *MemoryStore) Fail(_ context.Context, id, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if err := applyFail(&res, detail); err != nil {
		return err
	}
	s.records[id] = res
	return nil
}
