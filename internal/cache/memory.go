package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/psi-indicator-engine/internal/domain"
)

// DefaultMaxItems bounds the memory cache when no size is configured
const DefaultMaxItems = 10000

// MemoryCache is a bounded LRU of verdict lists
type MemoryCache struct {
	entries *lru.Cache[string, []domain.Verdict]
}

// NewMemoryCache creates a memory cache holding at most size entries.
// A size of zero selects DefaultMaxItems.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size == 0 {
		size = DefaultMaxItems
	}
	if size < 0 {
		return nil, fmt.Errorf("invalid cache size %d", size)
	}
	entries, err := lru.New[string, []domain.Verdict](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &MemoryCache{entries: entries}, nil
}

// Get returns a copy of the cached verdicts
func (m *MemoryCache) Get(_ context.Context, key string) ([]domain.Verdict, bool) {
	verdicts, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	return cloneVerdicts(verdicts), true
}

// Set stores a copy of verdicts, evicting the least recently used entry when full
func (m *MemoryCache) Set(_ context.Context, key string, verdicts []domain.Verdict) {
	m.entries.Add(key, cloneVerdicts(verdicts))
}

// Len returns the number of cached entries
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}

// Purge drops every entry. It is called after a reference reload.
func (m *MemoryCache) Purge() {
	m.entries.Purge()
}
