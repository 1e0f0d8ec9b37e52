package memory

import (
	"context"
	"sync"

	"github.com/storefront-labs/storefront-api/internal/domain/voucher"
)

var _ voucher.AppliedStore = (*AppliedStore)(nil)

// AppliedStore keeps applied vouchers in a map. Entries never expire.
type AppliedStore struct {
	mu      sync.Mutex
	entries map[string]voucher.Applied
}

// NewAppliedStore returns an empty AppliedStore
func NewAppliedStore() *AppliedStore {
	return &AppliedStore{entries: map[string]voucher.Applied{}}
}

func (s *AppliedStore) Get(_ context.Context, key string) (*voucher.Applied, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *AppliedStore) Set(_ context.Context, key string, applied voucher.Applied) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = applied
	return nil
}

func (s *AppliedStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
