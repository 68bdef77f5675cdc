// Package config loads the recognized option surface from spec.md §6
// through an isolated viper.Viper instance (following the pack's
// josephgoksu-TaskWing internal/config/writer.go, which uses viper.New()
// rather than the global singleton so multiple configs can coexist in one
// process). Options are read from built-in defaults, a YAML file, and
// environment variables prefixed BABEL_, in that ascending precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/deidaraiorek/babelsearch/internal/babel/apperr"
	"github.com/deidaraiorek/babelsearch/internal/babel/cache"
	"github.com/deidaraiorek/babelsearch/internal/babel/domain"
	"github.com/deidaraiorek/babelsearch/internal/babel/enumerator"
	"github.com/deidaraiorek/babelsearch/internal/babel/pipeline"
	"github.com/deidaraiorek/babelsearch/internal/babel/scorer"
)

// Config is the fully-resolved option surface: enumeration bounds, scoring
// weights, cache policy, and pipeline concurrency/deadline knobs.
type Config struct {
	NgramMin             int
	NgramMax             int
	EnumDepth            int
	EnumMaxResults       int
	WeightLanguage       float64
	WeightStructure      float64
	WeightNgram          float64
	WeightExact          float64
	CacheTTLSeconds      int
	CacheMaxEntries      int
	OverfetchFactor      float64
	ConcurrencyLimit     int
	DeadlineSeconds      float64
	RemoteTimeoutSeconds float64
	ModeDefault          string
}

// Load reads configuration from path (if non-empty) and the BABEL_
// environment, layering over the built-in defaults. It never returns
// apperr.ErrInvalidConfig for a missing file — only Validate does that,
// and only for out-of-bounds values (spec.md §7: InvalidConfig is
// surfaced at configuration time, never during a request).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("babel")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Config{
		NgramMin:             v.GetInt("ngram_min"),
		NgramMax:             v.GetInt("ngram_max"),
		EnumDepth:            v.GetInt("enum_depth"),
		EnumMaxResults:       v.GetInt("enum_max_results"),
		WeightLanguage:       v.GetFloat64("weights.language"),
		WeightStructure:      v.GetFloat64("weights.structure"),
		WeightNgram:          v.GetFloat64("weights.ngram"),
		WeightExact:          v.GetFloat64("weights.exact"),
		CacheTTLSeconds:      v.GetInt("cache.ttl_seconds"),
		CacheMaxEntries:      v.GetInt("cache.max_entries"),
		OverfetchFactor:      v.GetFloat64("pipeline.overfetch_factor"),
		ConcurrencyLimit:     v.GetInt("pipeline.concurrency_limit"),
		DeadlineSeconds:      v.GetFloat64("pipeline.deadline_seconds"),
		RemoteTimeoutSeconds: v.GetFloat64("pipeline.remote_timeout_seconds"),
		ModeDefault:          v.GetString("mode_default"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	enumDefaults := enumerator.Defaults()
	weights := scorer.DefaultWeights()
	pipeDefaults := pipeline.DefaultConfig()

	v.SetDefault("ngram_min", enumDefaults.MinNgram)
	v.SetDefault("ngram_max", enumDefaults.MaxNgram)
	v.SetDefault("enum_depth", enumDefaults.Depth)
	v.SetDefault("enum_max_results", enumDefaults.MaxResults)
	v.SetDefault("weights.language", weights.Language)
	v.SetDefault("weights.structure", weights.Structure)
	v.SetDefault("weights.ngram", weights.Ngram)
	v.SetDefault("weights.exact", weights.Exact)
	v.SetDefault("cache.ttl_seconds", int(cache.DefaultTTL.Seconds()))
	v.SetDefault("cache.max_entries", cache.DefaultMaxEntries)
	v.SetDefault("pipeline.overfetch_factor", pipeDefaults.OverfetchFactor)
	v.SetDefault("pipeline.concurrency_limit", pipeDefaults.ConcurrencyLimit)
	v.SetDefault("pipeline.deadline_seconds", pipeDefaults.DeadlineSeconds)
	v.SetDefault("pipeline.remote_timeout_seconds", pipeDefaults.RemoteTimeoutSeconds)
	v.SetDefault("mode_default", string(pipeDefaults.DefaultMode))
}

// Validate checks every bound spec.md documents for the config surface.
func (c Config) Validate() error {
	if c.NgramMin < 1 || c.NgramMin > c.NgramMax || c.NgramMax > 16 {
		return fmt.Errorf("%w: ngram_min/ngram_max out of bounds (%d/%d)", apperr.ErrInvalidConfig, c.NgramMin, c.NgramMax)
	}
	if c.EnumDepth < 1 {
		return fmt.Errorf("%w: enum_depth must be >= 1", apperr.ErrInvalidConfig)
	}
	if c.EnumMaxResults < 1 {
		return fmt.Errorf("%w: enum_max_results must be >= 1", apperr.ErrInvalidConfig)
	}
	if !domain.ValidMode(domain.Mode(c.ModeDefault)) {
		return fmt.Errorf("%w: mode_default %q not recognized", apperr.ErrInvalidConfig, c.ModeDefault)
	}
	if c.OverfetchFactor < 1 || c.OverfetchFactor > 10 {
		return fmt.Errorf("%w: pipeline.overfetch_factor out of [1,10]", apperr.ErrInvalidConfig)
	}
	if c.ConcurrencyLimit < 1 {
		return fmt.Errorf("%w: pipeline.concurrency_limit must be >= 1", apperr.ErrInvalidConfig)
	}
	if c.DeadlineSeconds <= 0 || c.RemoteTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: pipeline deadline/remote timeout must be > 0", apperr.ErrInvalidConfig)
	}
	sum := c.WeightLanguage + c.WeightStructure + c.WeightNgram + c.WeightExact
	if sum <= 0 {
		return fmt.Errorf("%w: weights must sum to a positive value", apperr.ErrInvalidConfig)
	}
	return nil
}

// EnumeratorConfig projects the enumeration-related fields into an
// enumerator.Config.
func (c Config) EnumeratorConfig() enumerator.Config {
	return enumerator.Config{
		MinNgram:   c.NgramMin,
		MaxNgram:   c.NgramMax,
		Depth:      c.EnumDepth,
		MaxResults: c.EnumMaxResults,
	}
}

// Weights projects the weight fields into a scorer.Weights.
func (c Config) Weights() scorer.Weights {
	return scorer.Weights{
		Language:  c.WeightLanguage,
		Structure: c.WeightStructure,
		Ngram:     c.WeightNgram,
		Exact:     c.WeightExact,
	}
}

// PipelineConfig projects the pipeline-related fields into a
// pipeline.Config, ready to pass to pipeline.New.
func (c Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		Enumerator:           c.EnumeratorConfig(),
		Weights:              c.Weights(),
		OverfetchFactor:      c.OverfetchFactor,
		ConcurrencyLimit:     c.ConcurrencyLimit,
		DeadlineSeconds:      c.DeadlineSeconds,
		RemoteTimeoutSeconds: c.RemoteTimeoutSeconds,
		DefaultMode:          domain.Mode(c.ModeDefault),
	}
}
