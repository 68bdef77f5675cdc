package cache_test

import (
	"testing"
	"time"

	"github.com/deidaraiorek/babelsearch/internal/babel/cache"
	"github.com/deidaraiorek/babelsearch/internal/babel/clock"
	"github.com/deidaraiorek/babelsearch/internal/babel/domain"
)

func newEntry(fp string, createdAt time.Time) domain.CacheEntry {
	return domain.CacheEntry{
		Fingerprint: fp,
		Results: []domain.DecodedPage{
			{Address: "addr-" + fp, RawText: "hello"},
		},
		CreatedAt: createdAt,
	}
}

func TestGetMissThenHit(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	c, err := cache.New(cache.Config{MaxEntries: 4, TTL: time.Minute, Clock: fc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, ok := c.Get("fp1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	entry := newEntry("fp1", fc.Now())
	c.Put("fp1", entry)

	got, ok := c.Get("fp1")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got.Fingerprint != "fp1" {
		t.Fatalf("fingerprint = %q, want fp1", got.Fingerprint)
	}
}

func TestTTLExpiry(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	c, err := cache.New(cache.Config{MaxEntries: 4, TTL: 10 * time.Second, Clock: fc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put("fp1", newEntry("fp1", fc.Now()))
	fc.Advance(9 * time.Second)
	if _, ok := c.Get("fp1"); !ok {
		t.Fatal("expected hit before TTL")
	}

	fc.Advance(2 * time.Second)
	if _, ok := c.Get("fp1"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestLRUEviction(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	c, err := cache.New(cache.Config{MaxEntries: 2, TTL: time.Hour, Clock: fc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put("fp1", newEntry("fp1", fc.Now()))
	c.Put("fp2", newEntry("fp2", fc.Now()))
	// touch fp1 so fp2 becomes least-recently-used
	c.Get("fp1")
	c.Put("fp3", newEntry("fp3", fc.Now()))

	if _, ok := c.Get("fp2"); ok {
		t.Fatal("expected fp2 to be evicted as LRU")
	}
	if _, ok := c.Get("fp1"); !ok {
		t.Fatal("expected fp1 to survive eviction")
	}
	if _, ok := c.Get("fp3"); !ok {
		t.Fatal("expected fp3 to be present")
	}
}

func TestGetReturnsIndependentSnapshot(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	c, err := cache.New(cache.Config{MaxEntries: 4, TTL: time.Hour, Clock: fc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put("fp1", newEntry("fp1", fc.Now()))
	got, _ := c.Get("fp1")
	got.Results[0].RawText = "mutated"

	again, _ := c.Get("fp1")
	if again.Results[0].RawText == "mutated" {
		t.Fatal("mutating a returned entry leaked into the cache")
	}
}

func TestFlushAndInvalidate(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	c, err := cache.New(cache.Config{MaxEntries: 4, TTL: time.Hour, Clock: fc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Put("fp1", newEntry("fp1", fc.Now()))
	c.Put("fp2", newEntry("fp2", fc.Now()))

	c.Invalidate("fp1")
	if _, ok := c.Get("fp1"); ok {
		t.Fatal("expected fp1 invalidated")
	}
	if _, ok := c.Get("fp2"); !ok {
		t.Fatal("expected fp2 to remain")
	}

	c.Flush()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after flush, got %d entries", c.Len())
	}
}

func TestSnapshotRestoreDropsExpired(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	src, err := cache.New(cache.Config{MaxEntries: 4, TTL: 5 * time.Second, Clock: fc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	src.Put("fresh", newEntry("fresh", fc.Now()))
	src.Put("stale", newEntry("stale", fc.Now().Add(-time.Hour)))

	snap := src.Snapshot()
	if len(snap) != 1 || snap[0].Fingerprint != "fresh" {
		t.Fatalf("expected snapshot to contain only 'fresh', got %v", snap)
	}

	dst, err := cache.New(cache.Config{MaxEntries: 4, TTL: 5 * time.Second, Clock: fc})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dst.Restore([]domain.CacheEntry{
		newEntry("fresh", fc.Now()),
		newEntry("stale", fc.Now().Add(-time.Hour)),
	})
	if _, ok := dst.Get("stale"); ok {
		t.Fatal("expected stale entry dropped on restore")
	}
	if _, ok := dst.Get("fresh"); !ok {
		t.Fatal("expected fresh entry restored")
	}
}
