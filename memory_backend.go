package adal

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type memoryEntry struct {
	partition string
	data      []byte
}

type memoryBackend struct {
	cache *cache.Cache
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (m *memoryBackend) saveEntry(_ context.Context, partition string, id string, value []byte, expiresIn time.Duration) error {
	return m.cache.Add(id, memoryEntry{
		partition: partition,
		data:      slices.Clone(value),
	}, expiresIn)
}

func (m *memoryBackend) loadEntries(_ context.Context, partition string) ([]*storedEntry, error) {
	type expiringEntry struct {
		entry      *storedEntry
		expiration int64
	}
	found := make([]expiringEntry, 0)
	for id, item := range m.cache.Items() {
		e, ok := item.Object.(memoryEntry)
		if !ok || e.partition != partition {
			continue
		}
		found = append(found, expiringEntry{
			entry: &storedEntry{
				ID:   id,
				Data: slices.Clone(e.data),
			},
			expiration: item.Expiration,
		})
	}
	// Same order as the Redis partition set: soonest expiry first, then id.
	slices.SortFunc(found, func(a, b expiringEntry) int {
		if c := cmp.Compare(a.expiration, b.expiration); c != 0 {
			return c
		}
		return strings.Compare(a.entry.ID, b.entry.ID)
	})
	entries := make([]*storedEntry, len(found))
	for i, f := range found {
		entries[i] = f.entry
	}
	return entries, nil
}

func (m *memoryBackend) deleteEntries(_ context.Context, partition string, ids ...string) error {
	for _, id := range ids {
		x, found := m.cache.Get(id)
		if !found {
			continue
		}
		if e, ok := x.(memoryEntry); ok && e.partition == partition {
			m.cache.Delete(id)
		}
	}
	return nil
}
