package store

import (
	"context"
	"sync"

	"github.com/everforgeworks/tap-the-cap/internal/game"
)

// MemoryStore keeps the encoded layout in a map. Progress is lost on exit.
type MemoryStore struct {
	mu     sync.Mutex
	fields map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DecodeSnapshot(s.fields)
}

func (s *MemoryStore) Save(ctx context.Context, snap game.Snapshot) error {
	fields := EncodeSnapshot(snap)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = fields
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Put writes a raw field, bypassing the encoder.
// Test helper for planting hand-written or corrupt values.
func (s *MemoryStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fields == nil {
		s.fields = make(map[string]string)
	}
	s.fields[key] = value
}
