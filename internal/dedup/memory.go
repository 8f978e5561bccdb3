package dedup

import (
	"context"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/josh-kwaku/cartpanda-whatsapp/internal/metrics"
)

// MemoryStore is a process-local set of sent order ids. Reaching maxSize
// clears the whole set.
type MemoryStore struct {
	mu      sync.Mutex
	items   *cache.Cache
	maxSize int
}

func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		items:   cache.New(cache.NoExpiration, 0),
		maxSize: maxSize,
	}
}

func (s *MemoryStore) Seen(_ context.Context, orderID string) (bool, error) {
	_, found := s.items.Get(orderID)
	return found, nil
}

// Mark records orderID and reports whether it was newly added.
func (s *MemoryStore) Mark(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.items.Get(orderID); found {
		return false, nil
	}
	if s.maxSize > 0 && s.items.ItemCount() >= s.maxSize {
		s.items.Flush()
		metrics.DedupResetsTotal.Inc()
	}
	return s.items.Add(orderID, struct{}{}, cache.NoExpiration) == nil, nil
}

func (s *MemoryStore) Forget(_ context.Context, orderID string) error {
	s.items.Delete(orderID)
	return nil
}

func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}
