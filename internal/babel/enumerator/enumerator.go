// Package enumerator turns free-form query text into a deterministic,
// ranked list of candidate Babel addresses. The normalization step here
// mirrors the teacher's tokenizer.normalize (lowercase, collapse
// whitespace) but stops short of tokenizing: enumeration ranks raw
// n-grams of the query text, not stemmed terms.
package enumerator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/deidaraiorek/babelsearch/internal/babel/apperr"
)

// Config bounds the enumerator's behavior. Zero-value Config is invalid;
// use Defaults() as a starting point.
type Config struct {
	MinNgram    int
	MaxNgram    int
	Depth       int
	MaxResults  int
}

// Defaults returns the spec-mandated default configuration.
func Defaults() Config {
	return Config{
		MinNgram:   2,
		MaxNgram:   5,
		Depth:      2,
		MaxResults: 10,
	}
}

// Validate checks Config's bounds: 1 <= MinNgram <= MaxNgram <= 16,
// Depth >= 1, MaxResults >= 1.
func (c Config) Validate() error {
	switch {
	case c.MinNgram < 1:
		return fmt.Errorf("%w: min_ngram must be >= 1, got %d", apperr.ErrInvalidConfig, c.MinNgram)
	case c.MaxNgram < c.MinNgram:
		return fmt.Errorf("%w: max_ngram (%d) must be >= min_ngram (%d)", apperr.ErrInvalidConfig, c.MaxNgram, c.MinNgram)
	case c.MaxNgram > 16:
		return fmt.Errorf("%w: max_ngram must be <= 16, got %d", apperr.ErrInvalidConfig, c.MaxNgram)
	case c.Depth < 1:
		return fmt.Errorf("%w: depth must be >= 1, got %d", apperr.ErrInvalidConfig, c.Depth)
	case c.MaxResults < 1:
		return fmt.Errorf("%w: max_results must be >= 1, got %d", apperr.ErrInvalidConfig, c.MaxResults)
	}
	return nil
}

// Candidate is a scored, deduplicated address produced by Enumerate.
type Candidate struct {
	Address string
	Score   float64
	Ngrams  map[string]struct{}
	Depth   int
}

// NormalizeQuery lowercases q, collapses internal whitespace runs to a
// single space, and trims outer whitespace.
func NormalizeQuery(q string) string {
	fields := strings.Fields(strings.ToLower(q))
	return strings.Join(fields, " ")
}

// ExtractNgrams returns the unique n-grams of text with sizes in
// [minSize, maxSize], ordered longest-first then left-to-right, deduped
// on first occurrence.
func ExtractNgrams(text string, minSize, maxSize int) []string {
	runes := []rune(text)
	seen := make(map[string]struct{})
	var out []string

	for size := maxSize; size >= minSize; size-- {
		if size <= 0 || size > len(runes) {
			continue
		}
		for start := 0; start+size <= len(runes); start++ {
			g := string(runes[start : start+size])
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}

// Enumerate deterministically derives up to maxResults candidate addresses
// from query, emitting depth variants per n-gram. It returns
// apperr.ErrInvalidQuery if the normalized query is empty.
func Enumerate(query string, cfg Config) ([]Candidate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty after normalization", apperr.ErrInvalidQuery)
	}

	ngrams := ExtractNgrams(normalized, cfg.MinNgram, cfg.MaxNgram)

	merged := make(map[string]*Candidate)
	var order []string

	for _, g := range ngrams {
		for variant := 1; variant <= cfg.Depth; variant++ {
			addr := variantAddress(g, variant)
			score := float64(len([]rune(g))) + 1.0/float64(variant+1)

			c, ok := merged[addr]
			if !ok {
				c = &Candidate{
					Address: addr,
					Ngrams:  map[string]struct{}{},
					Depth:   variant,
				}
				merged[addr] = c
				order = append(order, addr)
			}
			c.Ngrams[g] = struct{}{}
			c.Score += score
			if variant < c.Depth {
				c.Depth = variant
			}
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, addr := range order {
		out = append(out, *merged[addr])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Address < out[j].Address
	})

	if len(out) > cfg.MaxResults {
		out = out[:cfg.MaxResults]
	}
	return out, nil
}

// variantAddress computes hex(SHA-256(ngram || ":" || decimal_ascii(variant))).
func variantAddress(ngram string, variant int) string {
	h := sha256.New()
	h.Write([]byte(ngram))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.Itoa(variant)))
	return hex.EncodeToString(h.Sum(nil))
}
