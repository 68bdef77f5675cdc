package checkpoint_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/deidaraiorek/babelsearch/internal/babel/checkpoint"
	"github.com/deidaraiorek/babelsearch/internal/babel/domain"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "checkpoint.db")
	store, err := checkpoint.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC().Truncate(time.Second)
	entries := []domain.CacheEntry{
		{
			Fingerprint: "fp1",
			Results: []domain.DecodedPage{
				{Address: "addr1", RawText: "hello", Source: domain.SourceLocal},
			},
			CreatedAt: now,
		},
		{
			Fingerprint: "fp2",
			Results:     []domain.DecodedPage{{Address: "addr2", RawText: "world"}},
			CreatedAt:   now.Add(-2 * time.Hour),
		},
	}

	if err := store.Save(entries); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(now, time.Hour)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Fingerprint != "fp1" {
		t.Fatalf("expected only fp1 within TTL, got %v", loaded)
	}
	if loaded[0].Results[0].Address != "addr1" {
		t.Fatalf("unexpected round-tripped address: %v", loaded[0].Results)
	}
}

func TestPrune(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "checkpoint.db")
	store, err := checkpoint.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	err = store.Save([]domain.CacheEntry{
		{Fingerprint: "old", CreatedAt: now.Add(-3 * time.Hour)},
		{Fingerprint: "new", CreatedAt: now},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Prune(now, time.Hour); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	loaded, err := store.Load(now, 24*time.Hour)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Fingerprint != "new" {
		t.Fatalf("expected only 'new' to survive prune, got %v", loaded)
	}
}
