package store

import (
	"context"
	"sync"

	"github.com/ppiankov/estatuto/internal/model"
)

// MemoryStore keeps acts in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	acts    map[model.ActKey]*model.StructuredAct
	records map[model.ActKey]model.ActRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		acts:    make(map[model.ActKey]*model.StructuredAct),
		records: make(map[model.ActKey]model.ActRecord),
	}
}

func (s *MemoryStore) FetchAct(_ context.Context, key model.ActKey) (*model.StructuredAct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	act, ok := s.acts[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(act), nil
}

func (s *MemoryStore) SaveAct(_ context.Context, act *model.StructuredAct) error {
	if err := validKey(act.Key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := clone(act)
	keepEmenta(stored, s.acts[act.Key])
	s.acts[act.Key] = stored
	return nil
}

func (s *MemoryStore) SaveRecords(_ context.Context, records []model.ActRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range records {
		if validKey(r.Key()) != nil {
			continue
		}
		s.records[r.Key()] = r
		n++
	}
	return n, nil
}

// Records returns a snapshot of the stored listing records
func (s *MemoryStore) Records() []model.ActRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ActRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

func (s *MemoryStore) Close() error { return nil }
