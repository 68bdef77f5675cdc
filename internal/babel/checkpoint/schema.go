package checkpoint

// Schema mirrors the teacher's indexer/internal/storage/schema.go shape: a
// single CREATE TABLE IF NOT EXISTS block executed once at open time, plus
// an index on created_at_unix for Prune's age-based delete.
const Schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    fingerprint TEXT PRIMARY KEY,
    results_json TEXT NOT NULL,
    created_at_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_created_at ON cache_entries(created_at_unix);
`
