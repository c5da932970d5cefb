package adal

import (
	"context"
	"time"
)

// backend stores encoded cache entries. Entries are grouped in partitions,
// one per client id, and expire on their own after expiresIn.
type backend interface {
	saveEntry(ctx context.Context, partition string, id string, value []byte, expiresIn time.Duration) error
	loadEntries(ctx context.Context, partition string) ([]*storedEntry, error)
	deleteEntries(ctx context.Context, partition string, ids ...string) error
}

type storedEntry struct {
	ID   string
	Data []byte
}
