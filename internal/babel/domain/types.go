// Package domain holds the value types shared across the retrieval
// pipeline: DecodedPage, its provenance, and the cache entries that wrap
// ranked result sets. These are immutable after construction (spec.md §3)
// so a cached entry handed back by Cache.Get is never observably mutated
// by a later Put of the same fingerprint.
package domain

import (
	"time"

	"github.com/deidaraiorek/babelsearch/internal/babel/scorer"
)

// Source tags where a page's raw text came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Mode selects how the pipeline retrieves pages for enumerated candidates.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
	ModeHybrid Mode = "hybrid"
)

// ValidMode reports whether m is one of the three recognized modes.
func ValidMode(m Mode) bool {
	switch m {
	case ModeLocal, ModeRemote, ModeHybrid:
		return true
	default:
		return false
	}
}

// Provenance records how and when a DecodedPage was produced.
type Provenance struct {
	Timestamp  time.Time
	Normalized bool
	Source     Source
}

// DecodedPage is one ranked, scored result: an address, its materialized
// page, the coherence judgment against the originating query, and the
// provenance of how it was produced.
type DecodedPage struct {
	Address         string
	RawText         string
	Query           string
	Source          Source
	Coherence       scorer.CoherenceScore
	NormalizedText  string
	HasNormalized   bool
	Provenance      Provenance
}

// Clone returns a deep-enough copy of d: the Coherence.Metrics map is
// copied so a caller can't mutate a cached entry's diagnostics through the
// returned value.
func (d DecodedPage) Clone() DecodedPage {
	metrics := make(map[string]float64, len(d.Coherence.Metrics))
	for k, v := range d.Coherence.Metrics {
		metrics[k] = v
	}
	clone := d
	clone.Coherence.Metrics = metrics
	return clone
}

// CacheEntry is an immutable, TTL-governed snapshot of a search's ranked
// results, keyed by request fingerprint.
type CacheEntry struct {
	Fingerprint string
	Results     []DecodedPage
	CreatedAt   time.Time
}

// Clone returns a copy of e whose Results slice and each DecodedPage's
// mutable fields are independent of e's.
func (e CacheEntry) Clone() CacheEntry {
	results := make([]DecodedPage, len(e.Results))
	for i, r := range e.Results {
		results[i] = r.Clone()
	}
	return CacheEntry{Fingerprint: e.Fingerprint, Results: results, CreatedAt: e.CreatedAt}
}

// SearchResult is the top-level response of a pipeline search call.
type SearchResult struct {
	Query      string
	Results    []DecodedPage
	TotalFound int
	ElapsedMS  int64
}
