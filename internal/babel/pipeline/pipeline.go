// Package pipeline binds the generator, enumerator, scorer, and cache into
// spec.md §4.4's single search operation. Its worker-pool fan-out over
// per-candidate retrieval and scoring is adapted from the teacher's
// spider/internal/scheduler/scheduler.go (bounded goroutines fed by a
// shared job channel, coordinated with sync.WaitGroup), generalized from
// crawling to Babel-space retrieval and given a context deadline instead
// of a fixed page budget.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/deidaraiorek/babelsearch/internal/babel/apperr"
	"github.com/deidaraiorek/babelsearch/internal/babel/cache"
	"github.com/deidaraiorek/babelsearch/internal/babel/clock"
	"github.com/deidaraiorek/babelsearch/internal/babel/domain"
	"github.com/deidaraiorek/babelsearch/internal/babel/enumerator"
	"github.com/deidaraiorek/babelsearch/internal/babel/generator"
	"github.com/deidaraiorek/babelsearch/internal/babel/normalize"
	"github.com/deidaraiorek/babelsearch/internal/babel/remote"
	"github.com/deidaraiorek/babelsearch/internal/babel/reqid"
	"github.com/deidaraiorek/babelsearch/internal/babel/scorer"
)

// ConfigVersion is bumped whenever a change to defaults would otherwise
// silently alias two different scoring/enumeration behaviors under the
// same cache fingerprint.
const ConfigVersion = "v1"

// Config configures a Pipeline. Bounds mirror spec.md §6/§5.
type Config struct {
	Enumerator            enumerator.Config
	Weights               scorer.Weights
	OverfetchFactor       float64
	ConcurrencyLimit      int
	DeadlineSeconds       float64
	RemoteTimeoutSeconds  float64
	DefaultMode           domain.Mode
	NormalizeEnabled      bool
}

// DefaultConfig returns spec.md's default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Enumerator:           enumerator.Defaults(),
		Weights:              scorer.DefaultWeights(),
		OverfetchFactor:      3,
		ConcurrencyLimit:     8,
		DeadlineSeconds:      15,
		RemoteTimeoutSeconds: 5,
		DefaultMode:          domain.ModeLocal,
	}
}

// Validate checks Config's bounds, returning apperr.ErrInvalidConfig on
// violation. It is called once at Pipeline construction, never per request.
func (c Config) Validate() error {
	if err := c.Enumerator.Validate(); err != nil {
		return err
	}
	if c.OverfetchFactor < 1 || c.OverfetchFactor > 10 {
		return fmt.Errorf("%w: overfetch_factor must be in [1,10], got %v", apperr.ErrInvalidConfig, c.OverfetchFactor)
	}
	if c.ConcurrencyLimit < 1 {
		return fmt.Errorf("%w: concurrency_limit must be >= 1, got %d", apperr.ErrInvalidConfig, c.ConcurrencyLimit)
	}
	if c.DeadlineSeconds <= 0 {
		return fmt.Errorf("%w: deadline_seconds must be > 0, got %v", apperr.ErrInvalidConfig, c.DeadlineSeconds)
	}
	if c.RemoteTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: remote_timeout_seconds must be > 0, got %v", apperr.ErrInvalidConfig, c.RemoteTimeoutSeconds)
	}
	if !domain.ValidMode(c.DefaultMode) {
		return fmt.Errorf("%w: default mode %q not recognized", apperr.ErrInvalidConfig, c.DefaultMode)
	}
	return nil
}

// Pipeline is the single owner of process-wide mutable state: its cache.
// The generator, enumerator, and scorer it calls are pure and reentrant.
type Pipeline struct {
	cfg        Config
	cache      *cache.Cache
	clock      clock.Clock
	remote     remote.PageSource
	normalizer normalize.Provider
	logger     *log.Logger
}

// New constructs a Pipeline. remoteSrc may be nil if only local mode will
// ever be used; a nil logger defaults to log.Default(); a nil normalizer
// defaults to normalize.None.
func New(cfg Config, c *cache.Cache, clk clock.Clock, remoteSrc remote.PageSource, normalizer normalize.Provider, logger *log.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		var err error
		c, err = cache.New(cache.Config{})
		if err != nil {
			return nil, err
		}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if normalizer == nil {
		normalizer = normalize.None
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{cfg: cfg, cache: c, clock: clk, remote: remoteSrc, normalizer: normalizer, logger: logger}, nil
}

// Generate is the convenience entry point spec.md §6 names: a direct call
// into the pure generator.
func Generate(address string) string {
	return generator.AddressToPage(address)
}

// EnumerateCandidates is the convenience entry point wrapping the
// enumerator directly, for callers that want ranked addresses without a
// full search.
func EnumerateCandidates(query string, maxResults, depth int) ([]enumerator.Candidate, error) {
	cfg := enumerator.Defaults()
	cfg.MaxResults = maxResults
	cfg.Depth = depth
	return enumerator.Enumerate(query, cfg)
}

// Decode is the convenience entry point that scores caller-supplied text
// directly, without going through the generator or enumerator. Its source
// tag is always domain.SourceLocal: decode does no retrieval of its own.
func (p *Pipeline) Decode(address, text, query string) domain.DecodedPage {
	cs := scorer.Score(text, query, p.cfg.Weights)
	return domain.DecodedPage{
		Address:   address,
		RawText:   text,
		Query:     query,
		Source:    domain.SourceLocal,
		Coherence: cs,
		Provenance: domain.Provenance{
			Timestamp: p.clock.Now(),
			Source:    domain.SourceLocal,
		},
	}
}

// Search runs the full enumerate -> generate/fetch -> score -> rank
// pipeline (spec.md §4.4), applying the cache and the min-score cutoff.
func (p *Pipeline) Search(ctx context.Context, query string, maxResults int, mode domain.Mode, minScore float64) (domain.SearchResult, error) {
	start := time.Now()

	if !domain.ValidMode(mode) {
		return domain.SearchResult{}, fmt.Errorf("%w: %q", apperr.ErrInvalidMode, mode)
	}
	if maxResults <= 0 {
		return domain.SearchResult{Query: query, Results: nil, TotalFound: 0, ElapsedMS: elapsedMS(start)}, nil
	}

	normalized := enumerator.NormalizeQuery(query)
	if normalized == "" {
		return domain.SearchResult{}, fmt.Errorf("%w: empty after normalization", apperr.ErrInvalidQuery)
	}

	fp := p.fingerprint(normalized, maxResults, mode, minScore)
	if entry, ok := p.cache.Get(fp); ok {
		return domain.SearchResult{
			Query:      query,
			Results:    entry.Results,
			TotalFound: len(entry.Results),
			ElapsedMS:  elapsedMS(start),
		}, nil
	}

	overfetch := int(math.Ceil(float64(maxResults) * p.cfg.OverfetchFactor))
	enumCfg := p.cfg.Enumerator
	enumCfg.MaxResults = overfetch

	candidates, err := enumerator.Enumerate(query, enumCfg)
	if err != nil {
		return domain.SearchResult{}, err
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.DeadlineSeconds*float64(time.Second)))
	defer cancel()

	scored, partial := p.retrieveAndScore(deadlineCtx, normalized, candidates, mode)

	if partial && len(scored) == 0 {
		p.logger.Printf("babel: pipeline: request_id=%s deadline exceeded with no candidates scored for query %q", reqid.FromContext(ctx), query)
		return domain.SearchResult{}, fmt.Errorf("%w: no candidates scored before deadline", apperr.ErrDeadline)
	}

	filtered := make([]domain.DecodedPage, 0, len(scored))
	for _, d := range scored {
		if d.Coherence.OverallScore >= minScore {
			filtered = append(filtered, d)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Coherence.OverallScore != filtered[j].Coherence.OverallScore {
			return filtered[i].Coherence.OverallScore > filtered[j].Coherence.OverallScore
		}
		return filtered[i].Address < filtered[j].Address
	})

	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	totalFound := len(filtered)

	if p.cfg.NormalizeEnabled {
		for i := range filtered {
			filtered[i].NormalizedText = p.normalizer.Normalize(filtered[i].RawText, normalized)
			filtered[i].HasNormalized = true
			filtered[i].Provenance.Normalized = true
		}
	}

	result := domain.SearchResult{
		Query:      query,
		Results:    filtered,
		TotalFound: totalFound,
		ElapsedMS:  elapsedMS(start),
	}

	if !partial {
		p.cache.Put(fp, domain.CacheEntry{
			Fingerprint: fp,
			Results:     filtered,
			CreatedAt:   p.clock.Now(),
		})
	}

	return result, nil
}

func elapsedMS(start time.Time) int64 {
	return time.Since(start).Nanoseconds() / int64(time.Millisecond)
}

// retrieveAndScore fans candidates out to a bounded worker pool, each
// worker retrieving a page (per mode) and scoring it against query.
// partial reports whether ctx's deadline fired before every candidate was
// processed.
func (p *Pipeline) retrieveAndScore(ctx context.Context, query string, candidates []enumerator.Candidate, mode domain.Mode) ([]domain.DecodedPage, bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	workers := p.cfg.ConcurrencyLimit
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan enumerator.Candidate)
	resultsCh := make(chan domain.DecodedPage, len(candidates))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, query, mode, jobs, resultsCh)
		}()
	}

	go func() {
		defer close(jobs)
		for _, c := range candidates {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var out []domain.DecodedPage
	partial := false
collect:
	for {
		select {
		case r, ok := <-resultsCh:
			if !ok {
				break collect
			}
			out = append(out, r)
		case <-ctx.Done():
			partial = true
			// Drain whatever already landed in the buffered channel
			// without blocking further.
			for {
				select {
				case r, ok := <-resultsCh:
					if !ok {
						break collect
					}
					out = append(out, r)
				default:
					break collect
				}
			}
		}
	}
	return out, partial
}

func (p *Pipeline) worker(ctx context.Context, query string, mode domain.Mode, jobs <-chan enumerator.Candidate, resultsCh chan<- domain.DecodedPage) {
	for cand := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		page, source, err := p.retrievePage(ctx, cand.Address, mode)
		if err != nil {
			p.logger.Printf("babel: pipeline: request_id=%s %s for address %s: %v", reqid.FromContext(ctx), apperr.ErrRemoteFetchFailed, cand.Address, err)
			continue
		}

		cs := scorer.Score(page, query, p.cfg.Weights)
		dp := domain.DecodedPage{
			Address:   cand.Address,
			RawText:   page,
			Query:     query,
			Source:    source,
			Coherence: cs,
			Provenance: domain.Provenance{
				Timestamp: p.clock.Now(),
				Source:    source,
			},
		}

		select {
		case resultsCh <- dp:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) retrievePage(ctx context.Context, address string, mode domain.Mode) (string, domain.Source, error) {
	switch mode {
	case domain.ModeLocal:
		return generator.AddressToPage(address), domain.SourceLocal, nil
	case domain.ModeRemote:
		if p.remote == nil {
			return "", "", fmt.Errorf("%w: no remote page source configured", apperr.ErrRemoteFetchFailed)
		}
		page, err := p.remote.FetchPage(ctx, address)
		if err != nil {
			return "", "", err
		}
		return page, domain.SourceRemote, nil
	case domain.ModeHybrid:
		if p.remote != nil {
			page, err := p.remote.FetchPage(ctx, address)
			if err == nil {
				return page, domain.SourceRemote, nil
			}
			p.logger.Printf("babel: pipeline: request_id=%s %s for address %s, falling back to local: %v", reqid.FromContext(ctx), apperr.ErrRemoteFetchFailed, address, err)
		}
		return generator.AddressToPage(address), domain.SourceLocal, nil
	default:
		return "", "", fmt.Errorf("%w: %q", apperr.ErrInvalidMode, mode)
	}
}

// fingerprint derives a stable cache key from the request's inputs and the
// pipeline's config version, per spec.md §4.4 step 1.
func (p *Pipeline) fingerprint(normalizedQuery string, maxResults int, mode domain.Mode, minScore float64) string {
	h := sha256.New()
	h.Write([]byte(normalizedQuery))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(maxResults)))
	h.Write([]byte{0})
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(minScore, 'f', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(ConfigVersion))
	return hex.EncodeToString(h.Sum(nil))
}
