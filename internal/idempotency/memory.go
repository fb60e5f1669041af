package idempotency

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps keys in process memory. It is the default when no
// Redis address is configured.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryStore creates a store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{cache: cache.New(ttl, 10*time.Minute), ttl: ttl}
}

func (m *MemoryStore) Reserve(ctx context.Context, key string) (*Response, error) {
	// Add only succeeds when the key is absent, which makes the claim atomic.
	if err := m.cache.Add(key, entry{Status: statusProcessing}, m.ttl); err == nil {
		return nil, nil
	}
	v, found := m.cache.Get(key)
	if !found {
		// Expired between Add and Get; claim it again.
		return m.Reserve(ctx, key)
	}
	e := v.(entry)
	if e.Status == statusDone && e.Response != nil {
		return e.Response, nil
	}
	return nil, ErrInProgress
}

func (m *MemoryStore) Complete(_ context.Context, key string, resp Response) error {
	m.cache.Set(key, entry{Status: statusDone, Response: &resp}, m.ttl)
	return nil
}

func (m *MemoryStore) Release(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}
