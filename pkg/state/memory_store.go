package state

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store keyed by Ref.Identifier, intended for
// tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	data []byte
	meta Meta
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, ref Ref) ([]byte, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return append([]byte(nil), record.data...), cloneMeta(record.meta), true, nil
}

// Save implements Store. The returned Meta carries the content ETag.
func (s *MemoryStore) Save(_ context.Context, ref Ref, data []byte, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	saved := stamp(data, meta, time.Now())
	s.mu.Lock()
	if s.records == nil {
		s.records = map[string]memoryRecord{}
	}
	s.records[key] = memoryRecord{data: append([]byte(nil), data...), meta: cloneMeta(saved)}
	s.mu.Unlock()
	return saved, nil
}

// Keys returns the identifiers of stored documents, sorted.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
