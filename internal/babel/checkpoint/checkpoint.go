// Package checkpoint is the "surrounding control plane" persistence spec.md
// §6 describes: the core owns no state of its own, but a deployment may
// snapshot a Cache's contents across restarts. This mirrors the teacher's
// indexer/internal/storage.IndexDB — sql.Open("sqlite3", ...), a schema
// executed once, prepared statements inside a transaction — adapted from
// an inverted-index store to a cache-entry snapshot store. Nothing in
// internal/babel/pipeline imports this package: only cmd/babelsearchd
// wires it in, keeping the core's "no persisted state" invariant intact.
package checkpoint

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deidaraiorek/babelsearch/internal/babel/domain"
)

// Store is a SQLite-backed snapshot of cache entries.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a checkpoint database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("checkpoint: enable WAL: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("checkpoint: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists entries, replacing any existing row for the same
// fingerprint, inside a single transaction.
func (s *Store) Save(entries []domain.CacheEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("checkpoint: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO cache_entries (fingerprint, results_json, created_at_unix) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("checkpoint: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		payload, err := json.Marshal(e.Results)
		if err != nil {
			return fmt.Errorf("checkpoint: marshal results for %s: %w", e.Fingerprint, err)
		}
		if _, err := stmt.Exec(e.Fingerprint, string(payload), e.CreatedAt.Unix()); err != nil {
			return fmt.Errorf("checkpoint: insert %s: %w", e.Fingerprint, err)
		}
	}

	return tx.Commit()
}

// Load reads every stored entry whose created_at is still within ttl of
// now. Entries past TTL are dropped, per spec.md §6.
func (s *Store) Load(now time.Time, ttl time.Duration) ([]domain.CacheEntry, error) {
	rows, err := s.db.Query("SELECT fingerprint, results_json, created_at_unix FROM cache_entries")
	if err != nil {
		return nil, fmt.Errorf("checkpoint: query: %w", err)
	}
	defer rows.Close()

	var out []domain.CacheEntry
	for rows.Next() {
		var fp, payload string
		var createdUnix int64
		if err := rows.Scan(&fp, &payload, &createdUnix); err != nil {
			return nil, fmt.Errorf("checkpoint: scan: %w", err)
		}

		createdAt := time.Unix(createdUnix, 0).UTC()
		if now.Sub(createdAt) >= ttl {
			continue
		}

		var results []domain.DecodedPage
		if err := json.Unmarshal([]byte(payload), &results); err != nil {
			return nil, fmt.Errorf("checkpoint: unmarshal %s: %w", fp, err)
		}

		out = append(out, domain.CacheEntry{Fingerprint: fp, Results: results, CreatedAt: createdAt})
	}
	return out, rows.Err()
}

// Prune deletes every row older than now-ttl, so the checkpoint database
// doesn't grow unbounded across restarts.
func (s *Store) Prune(now time.Time, ttl time.Duration) error {
	cutoff := now.Add(-ttl).Unix()
	_, err := s.db.Exec("DELETE FROM cache_entries WHERE created_at_unix < ?", cutoff)
	if err != nil {
		return fmt.Errorf("checkpoint: prune: %w", err)
	}
	return nil
}
