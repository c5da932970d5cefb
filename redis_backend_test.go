package adal

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestRedisBackendKeys(t *testing.T) {
	r := &redisBackend{prefix: "ADAL"}
	if got := r.getPartitionKey("client-1"); got != "ADAL:CLIENT_TOKENS:client-1" {
		t.Fatalf("partition key = %q", got)
	}
	if got := r.getEntryKey("entry-1"); got != "ADAL:TOKENS:entry-1" {
		t.Fatalf("entry key = %q", got)
	}
}

func newMiniredisBackend(t *testing.T) (*miniredis.Miniredis, *redisBackend) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, &redisBackend{client: client, prefix: "ADAL"}
}

func TestRedisBackendScoresInMilliseconds(t *testing.T) {
	mr, r := newMiniredisBackend(t)
	ctx := context.Background()

	before := time.Now().UTC()
	if err := r.saveEntry(ctx, "client-1", "entry-1", []byte("data"), 1500*time.Millisecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	after := time.Now().UTC()

	score, err := mr.ZScore(r.getPartitionKey("client-1"), "entry-1")
	if err != nil {
		t.Fatalf("zscore: %v", err)
	}
	low := float64(before.Add(1500 * time.Millisecond).UnixMilli())
	high := float64(after.Add(1500 * time.Millisecond).UnixMilli())
	if score < low || score > high {
		t.Fatalf("score %v outside [%v, %v]", score, low, high)
	}
}

func TestRedisTokenCacheKeepsTokenExpiringWithinCurrentSecond(t *testing.T) {
	_, r := newMiniredisBackend(t)
	ctx := context.Background()
	c := NewTokenCache(WithRedisBackend(r.client))

	// Start just past a second boundary so the expiry lands later in the
	// same wall-clock second.
	now := time.Now()
	time.Sleep(now.Truncate(time.Second).Add(time.Second + 10*time.Millisecond).Sub(now))

	id, err := c.Add(ctx, &CachedToken{
		ClientID:    testClientID,
		AccessToken: "at",
		ExpiresOn:   time.Now().Add(800 * time.Millisecond),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	tokens, err := c.Find(ctx, CacheQuery{ClientID: testClientID})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(tokens) != 1 || tokens[0].ID != id {
		t.Fatalf("expected live token %s, got %+v", id, tokens)
	}
}

func TestRedisBackendPrunesExpiredScores(t *testing.T) {
	mr, r := newMiniredisBackend(t)
	ctx := context.Background()
	key := r.getPartitionKey("client-1")

	if err := mr.Set(r.getEntryKey("old"), "old"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := mr.ZAdd(key, float64(time.Now().Add(-time.Second).UnixMilli()), "old"); err != nil {
		t.Fatalf("zadd: %v", err)
	}
	if err := r.saveEntry(ctx, "client-1", "live", []byte("live"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := r.loadEntries(ctx, "client-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "live" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	members, err := mr.ZMembers(key)
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 1 || members[0] != "live" {
		t.Fatalf("expected expired member pruned, got %v", members)
	}
}

func TestRedisBackendPrunesMembersWithoutEntry(t *testing.T) {
	mr, r := newMiniredisBackend(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := r.saveEntry(ctx, "client-1", id, []byte(id), time.Hour); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	mr.Del(r.getEntryKey("a"))

	entries, err := r.loadEntries(ctx, "client-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "b" || string(entries[0].Data) != "b" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	members, err := mr.ZMembers(r.getPartitionKey("client-1"))
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 1 || members[0] != "b" {
		t.Fatalf("expected stale member pruned, got %v", members)
	}
}

func TestRedisBackendRejectsDuplicateEntry(t *testing.T) {
	mr, r := newMiniredisBackend(t)
	ctx := context.Background()

	if err := r.saveEntry(ctx, "client-1", "entry-1", []byte("first"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	err := r.saveEntry(ctx, "client-1", "entry-1", []byte("second"), time.Hour)
	if !errors.Is(err, errEntryExists) {
		t.Fatalf("expected errEntryExists, got %v", err)
	}
	got, err := mr.Get(r.getEntryKey("entry-1"))
	if err != nil || got != "first" {
		t.Fatalf("entry overwritten: %q, %v", got, err)
	}
}

func TestRedisBackendRollsBackEntryWhenPartitionAddFails(t *testing.T) {
	mr, r := newMiniredisBackend(t)
	ctx := context.Background()

	// A string under the partition key makes ZADD fail with WRONGTYPE.
	if err := mr.Set(r.getPartitionKey("client-1"), "not a sorted set"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := r.saveEntry(ctx, "client-1", "entry-1", []byte("data"), time.Hour); err == nil {
		t.Fatal("expected save to fail")
	}
	if mr.Exists(r.getEntryKey("entry-1")) {
		t.Fatal("entry should be removed after a failed partition add")
	}
}

func TestRedisBackendDeleteEntries(t *testing.T) {
	mr, r := newMiniredisBackend(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := r.saveEntry(ctx, "client-1", id, []byte(id), time.Hour); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}
	if err := r.deleteEntries(ctx, "client-1"); err != nil {
		t.Fatalf("empty delete: %v", err)
	}
	if err := r.deleteEntries(ctx, "client-1", "a", "c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, id := range []string{"a", "c"} {
		if mr.Exists(r.getEntryKey(id)) {
			t.Fatalf("entry %s still stored", id)
		}
	}
	members, err := mr.ZMembers(r.getPartitionKey("client-1"))
	if err != nil {
		t.Fatalf("zmembers: %v", err)
	}
	if len(members) != 1 || members[0] != "b" {
		t.Fatalf("unexpected members %v", members)
	}
}

func TestTokenCacheOrderIsSameForEveryBackend(t *testing.T) {
	_, r := newMiniredisBackend(t)
	ctx := context.Background()
	now := time.Now()
	expiries := []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour}
	want := []string{"at-1h0m0s", "at-2h0m0s", "at-3h0m0s"}

	caches := map[string]*TokenCache{
		"memory": NewTokenCache(WithMemoryBackend()),
		"redis":  NewTokenCache(WithRedisBackend(r.client)),
	}
	for name, c := range caches {
		for _, d := range expiries {
			_, err := c.Add(ctx, &CachedToken{
				ClientID:    testClientID,
				AccessToken: "at-" + d.String(),
				ExpiresOn:   now.Add(d),
			})
			if err != nil {
				t.Fatalf("%s add: %v", name, err)
			}
		}
		tokens, err := c.Find(ctx, CacheQuery{ClientID: testClientID})
		if err != nil {
			t.Fatalf("%s find: %v", name, err)
		}
		if len(tokens) != len(want) {
			t.Fatalf("%s: expected %d tokens, got %d", name, len(want), len(tokens))
		}
		for i, token := range tokens {
			if token.AccessToken != want[i] {
				t.Fatalf("%s: token %d = %q, want %q", name, i, token.AccessToken, want[i])
			}
		}
	}
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("ADAL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ADAL_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisTokenCacheIntegration(t *testing.T) {
	client := newTestRedisClient(t)
	ctx := context.Background()
	prefix := "ADAL_TEST_" + uuid.New().String()
	c := NewTokenCache(WithKeyPrefix(prefix), WithRedisBackend(client))

	ada := newTestInfo("oid-ada", "ada@contoso.com")
	adaID := addToken(t, c, "graph", ada)
	addToken(t, c, "graph", newTestInfo("oid-bob", "bob@contoso.com"))

	user := mustIdentifier(t, "ada@contoso.com", DisplayableID)
	token, err := c.FindOne(ctx, CacheQuery{ClientID: testClientID, User: user})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if token.ID != adaID {
		t.Fatalf("expected %s, got %s", adaID, token.ID)
	}

	// An entry dropped out of band is pruned from its partition.
	if err := client.Unlink(ctx, prefix+":TOKENS:"+adaID).Err(); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	tokens, err := c.Find(ctx, CacheQuery{ClientID: testClientID})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	members, err := client.ZRange(ctx, prefix+":CLIENT_TOKENS:"+testClientID, 0, -1).Result()
	if err != nil {
		t.Fatalf("zrange: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected stale member to be pruned, got %v", members)
	}

	n, err := c.Remove(ctx, CacheQuery{ClientID: testClientID})
	if err != nil || n != 1 {
		t.Fatalf("remove = %d, %v", n, err)
	}
}
