// Package config holds the typed, validated tunables for the screening
// engine: similarity knobs, scorer weights, and the service-level settings
// (server, feeds, batch, rate limit, trace). The live scoring config sits
// behind an atomic snapshot store so admin updates and file reloads never
// tear a compound read.
package config

import (
	"fmt"
	"time"

	"github.com/sentriq/screend/pkg/entity"
)

// Phonetic algorithm names accepted by SimilarityConfig.PhoneticAlgorithm.
const (
	PhoneticSoundex   = "soundex"
	PhoneticMetaphone = "metaphone"
)

// SimilarityConfig carries the string-similarity algorithm knobs.
type SimilarityConfig struct {
	// JaroWinklerBoostThreshold is the minimum Jaro score before the common
	// prefix boost applies.
	JaroWinklerBoostThreshold float64 `yaml:"jaro_winkler_boost_threshold" json:"jaroWinklerBoostThreshold"`

	// JaroWinklerPrefixSize caps how many leading characters count toward the
	// prefix boost.
	JaroWinklerPrefixSize int `yaml:"jaro_winkler_prefix_size" json:"jaroWinklerPrefixSize"`

	// LengthDifferenceCutoffFactor and LengthDifferencePenaltyWeight shape the
	// penalty applied when one string is much shorter than the other: the
	// penalty engages when short < long * cutoff and grows with the gap.
	LengthDifferenceCutoffFactor  float64 `yaml:"length_difference_cutoff_factor" json:"lengthDifferenceCutoffFactor"`
	LengthDifferencePenaltyWeight float64 `yaml:"length_difference_penalty_weight" json:"lengthDifferencePenaltyWeight"`

	// DifferentLetterPenaltyWeight multiplies the score when the first
	// letters differ.
	DifferentLetterPenaltyWeight float64 `yaml:"different_letter_penalty_weight" json:"differentLetterPenaltyWeight"`

	// ExactMatchFavoritism is added to the score of byte-equal strings before
	// the final clamp.
	ExactMatchFavoritism float64 `yaml:"exact_match_favoritism" json:"exactMatchFavoritism"`

	// UnmatchedIndexTokenWeight penalizes candidate tokens left unpaired by
	// the best-pairs aggregator.
	UnmatchedIndexTokenWeight float64 `yaml:"unmatched_index_token_weight" json:"unmatchedIndexTokenWeight"`

	// PhoneticFilteringDisabled turns the phonetic veto off entirely.
	PhoneticFilteringDisabled bool `yaml:"phonetic_filtering_disabled" json:"phoneticFilteringDisabled"`

	// PhoneticAlgorithm selects the veto encoding: soundex or metaphone.
	PhoneticAlgorithm string `yaml:"phonetic_algorithm" json:"phoneticAlgorithm"`

	// KeepStopwords skips stop-word removal during preparation.
	KeepStopwords bool `yaml:"keep_stopwords" json:"keepStopwords"`
}

// PhaseFlags enables or disables individual scoring factors.
type PhaseFlags struct {
	Name    bool `yaml:"name" json:"name"`
	AltName bool `yaml:"alt_name" json:"altName"`
	Address bool `yaml:"address" json:"address"`
	GovID   bool `yaml:"gov_id" json:"govId"`
	Crypto  bool `yaml:"crypto" json:"crypto"`
	Contact bool `yaml:"contact" json:"contact"`
	Date    bool `yaml:"date" json:"date"`
}

// WeightConfig carries the multi-factor aggregation knobs.
type WeightConfig struct {
	NameWeight           float64 `yaml:"name_weight" json:"nameWeight"`
	AddressWeight        float64 `yaml:"address_weight" json:"addressWeight"`
	CriticalIDWeight     float64 `yaml:"critical_id_weight" json:"criticalIdWeight"`
	SupportingInfoWeight float64 `yaml:"supporting_info_weight" json:"supportingInfoWeight"`

	// MinimumScore is the default match floor applied by the search service.
	MinimumScore float64 `yaml:"minimum_score" json:"minimumScore"`

	// ExactMatchThreshold is the critical-identifier score at or above which
	// exact-match dominance kicks in.
	ExactMatchThreshold float64 `yaml:"exact_match_threshold" json:"exactMatchThreshold"`

	Phases PhaseFlags `yaml:"phases" json:"phases"`
}

// ScoreConfig bundles every matching tunable. It contains only value fields,
// so a copy is a consistent snapshot.
type ScoreConfig struct {
	Similarity SimilarityConfig `yaml:"similarity" json:"similarity"`
	Weights    WeightConfig     `yaml:"weights" json:"weights"`
}

// DefaultScoreConfig returns the tuned production defaults.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Similarity: SimilarityConfig{
			JaroWinklerBoostThreshold:     0.7,
			JaroWinklerPrefixSize:         4,
			LengthDifferenceCutoffFactor:  0.9,
			LengthDifferencePenaltyWeight: 0.3,
			DifferentLetterPenaltyWeight:  0.9,
			ExactMatchFavoritism:          0.0,
			UnmatchedIndexTokenWeight:     0.15,
			PhoneticFilteringDisabled:     false,
			PhoneticAlgorithm:             PhoneticSoundex,
			KeepStopwords:                 false,
		},
		Weights: WeightConfig{
			NameWeight:           35,
			AddressWeight:        25,
			CriticalIDWeight:     50,
			SupportingInfoWeight: 15,
			MinimumScore:         0.88,
			ExactMatchThreshold:  0.99,
			Phases: PhaseFlags{
				Name:    true,
				AltName: true,
				Address: true,
				GovID:   true,
				Crypto:  true,
				Contact: true,
				Date:    true,
			},
		},
	}
}

// Validate checks the similarity knobs: probabilities stay in [0,1] and
// integer sizes are non-negative.
func (c SimilarityConfig) Validate() error {
	probs := []struct {
		name  string
		value float64
	}{
		{"jaroWinklerBoostThreshold", c.JaroWinklerBoostThreshold},
		{"lengthDifferenceCutoffFactor", c.LengthDifferenceCutoffFactor},
		{"lengthDifferencePenaltyWeight", c.LengthDifferencePenaltyWeight},
		{"differentLetterPenaltyWeight", c.DifferentLetterPenaltyWeight},
		{"exactMatchFavoritism", c.ExactMatchFavoritism},
		{"unmatchedIndexTokenWeight", c.UnmatchedIndexTokenWeight},
	}
	for _, p := range probs {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", p.name, p.value)
		}
	}
	if c.JaroWinklerPrefixSize < 0 {
		return fmt.Errorf("jaroWinklerPrefixSize must be >= 0, got %d", c.JaroWinklerPrefixSize)
	}
	switch c.PhoneticAlgorithm {
	case PhoneticSoundex, PhoneticMetaphone:
	default:
		return fmt.Errorf("phoneticAlgorithm must be %q or %q, got %q", PhoneticSoundex, PhoneticMetaphone, c.PhoneticAlgorithm)
	}
	return nil
}

// Validate checks the scorer weights: weights are non-negative and
// thresholds stay in [0,1].
func (c WeightConfig) Validate() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"nameWeight", c.NameWeight},
		{"addressWeight", c.AddressWeight},
		{"criticalIdWeight", c.CriticalIDWeight},
		{"supportingInfoWeight", c.SupportingInfoWeight},
	}
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("%s must be >= 0, got %v", w.name, w.value)
		}
	}
	if c.MinimumScore < 0 || c.MinimumScore > 1 {
		return fmt.Errorf("minimumScore must be in [0,1], got %v", c.MinimumScore)
	}
	if c.ExactMatchThreshold < 0 || c.ExactMatchThreshold > 1 {
		return fmt.Errorf("exactMatchThreshold must be in [0,1], got %v", c.ExactMatchThreshold)
	}
	return nil
}

// Validate checks the whole scoring config.
func (c ScoreConfig) Validate() error {
	if err := c.Similarity.Validate(); err != nil {
		return fmt.Errorf("similarity: %w", err)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	return nil
}

// ServerConfig carries the HTTP listener settings.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// BatchConfig carries the batch executor settings.
type BatchConfig struct {
	// Workers is the fixed pool size, clamped to [4,8].
	Workers int `yaml:"workers"`

	// MaxBatchSize caps the items accepted per batch request.
	MaxBatchSize int `yaml:"max_batch_size"`

	// JobTTL is how long finished async jobs stay queryable.
	JobTTL Duration `yaml:"job_ttl"`

	// JobTimeout bounds an async job's wall clock; zero disables it.
	JobTimeout Duration `yaml:"job_timeout"`
}

// FeedsConfig carries the watchlist ingestion settings. When SourceURLs is
// empty the embedded fixture feed serves all sources.
type FeedsConfig struct {
	RefreshInterval Duration          `yaml:"refresh_interval"`
	RequestTimeout  Duration          `yaml:"request_timeout"`
	SourceURLs      map[string]string `yaml:"source_urls"`
}

// RateLimitConfig enables the optional redis-backed limiter; an empty
// RedisAddr leaves the surface unlimited.
type RateLimitConfig struct {
	RedisAddr         string `yaml:"redis_addr"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// TraceConfig bounds the in-memory trace store.
type TraceConfig struct {
	TTL        Duration `yaml:"ttl"`
	MaxRecords int      `yaml:"max_records"`
}

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Scoring   ScoreConfig     `yaml:"scoring"`
	Batch     BatchConfig     `yaml:"batch"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Trace     TraceConfig     `yaml:"trace"`

	// WatchConfig reloads the scoring section when the config file changes.
	WatchConfig bool `yaml:"watch_config"`
}

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8084",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Scoring: DefaultScoreConfig(),
		Batch: BatchConfig{
			Workers:      6,
			MaxBatchSize: 1000,
			JobTTL:       Duration(time.Hour),
			JobTimeout:   0,
		},
		Feeds: FeedsConfig{
			RefreshInterval: 0,
			RequestTimeout:  Duration(90 * time.Second),
		},
		Trace: TraceConfig{
			TTL:        Duration(24 * time.Hour),
			MaxRecords: 10000,
		},
	}
}

// Validate checks the whole service config.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Batch.MaxBatchSize <= 0 {
		return fmt.Errorf("batch: max_batch_size must be > 0, got %d", c.Batch.MaxBatchSize)
	}
	if c.RateLimit.RedisAddr != "" && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit: requests_per_minute must be > 0 when redis_addr is set")
	}
	for name := range c.Feeds.SourceURLs {
		if src, ok := entity.ParseSource(name); !ok || src == "" {
			return fmt.Errorf("feeds: unknown source %q in source_urls", name)
		}
	}
	return nil
}

// BatchWorkers returns the configured pool size clamped to the supported
// range.
func (c *Config) BatchWorkers() int {
	return clampInt(c.Batch.Workers, 4, 8)
}

// clampInt limits val to [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
