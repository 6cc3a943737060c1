package portal

import (
	"context"
	"sync"

	"employee-portal/core"
)

// MemoryStore keeps the encoded bundle in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	raw   []byte
	found bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(context.Context) Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeLookup(s.raw, s.found)
}

func (s *MemoryStore) Set(_ context.Context, bundle core.TokenBundle) error {
	data, err := encodeBundle(bundle)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.raw, s.found = data, true
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.raw, s.found = nil, false
	s.mu.Unlock()
	return nil
}

// SetRaw stores an arbitrary blob, bypassing encoding.
func (s *MemoryStore) SetRaw(raw []byte) {
	s.mu.Lock()
	s.raw, s.found = append([]byte(nil), raw...), true
	s.mu.Unlock()
}
