package adal

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var errEntryExists = errors.New("cache entry already exists")

type redisBackend struct {
	client *redis.Client
	prefix string
}

func (r *redisBackend) getPartitionKey(partition string) string {
	return strings.Join([]string{
		r.prefix,
		"CLIENT_TOKENS",
		partition,
	}, ":")
}

func (r *redisBackend) getEntryKey(id string) string {
	return strings.Join([]string{
		r.prefix,
		"TOKENS",
		id,
	}, ":")
}

func (r *redisBackend) saveEntry(ctx context.Context, partition string, id string, value []byte, expiresIn time.Duration) error {
	expire := time.Now().UTC().Add(expiresIn)

	ok, err := r.client.SetNX(ctx, r.getEntryKey(id), value, expiresIn).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errEntryExists
	}

	err = r.client.ZAdd(ctx, r.getPartitionKey(partition), redis.Z{
		Member: id,
		Score:  float64(expire.UnixMilli()),
	}).Err()
	if err != nil {
		_ = r.client.Unlink(ctx, r.getEntryKey(id)).Err()
		return err
	}
	return nil
}

// cleanupPartition drops members whose entry already expired or was
// removed out of band. Scores are expiry times in unix milliseconds.
func (r *redisBackend) cleanupPartition(ctx context.Context, partition string) error {
	key := r.getPartitionKey(partition)

	now := time.Now().UTC().UnixMilli()
	err := r.client.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(now, 10)).Err()
	if err != nil {
		return err
	}
	ids, err := r.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return err
	}
	stale := make([]interface{}, 0)
	for _, id := range ids {
		count, err := r.client.Exists(ctx, r.getEntryKey(id)).Result()
		if err != nil {
			return err
		}
		if count <= 0 {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return r.client.ZRem(ctx, key, stale...).Err()
}

func (r *redisBackend) loadEntries(ctx context.Context, partition string) ([]*storedEntry, error) {
	if err := r.cleanupPartition(ctx, partition); err != nil {
		return nil, err
	}

	ids, err := r.client.ZRange(ctx, r.getPartitionKey(partition), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]*storedEntry, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, r.getEntryKey(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		entries = append(entries, &storedEntry{
			ID:   id,
			Data: data,
		})
	}
	return entries, nil
}

func (r *redisBackend) deleteEntries(ctx context.Context, partition string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	keys := make([]string, len(ids))
	for i, id := range ids {
		members[i] = id
		keys[i] = r.getEntryKey(id)
	}

	err := r.client.ZRem(ctx, r.getPartitionKey(partition), members...).Err()
	if err != nil {
		return err
	}
	return r.client.Unlink(ctx, keys...).Err()
}
