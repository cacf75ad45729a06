// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import "fmt"

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Fusion defines the relative contribution of each strategy when
	// blending into one personalized ranking.
	Fusion FusionWeights `json:"fusion" koanf:"fusion"`

	// Collaborative contains the collaborative scoring sub-weights.
	Collaborative CollaborativeConfig `json:"collaborative" koanf:"collaborative"`

	// Features contains feature construction parameters.
	Features FeatureConfig `json:"features" koanf:"features"`

	// Reduce contains dimensionality reduction and clustering parameters.
	Reduce ReduceConfig `json:"reduce" koanf:"reduce"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains result cache parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`

	// Seed is the random seed for deterministic behavior.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed" koanf:"seed"`
}

// FusionWeights defines the per-strategy blend weights. The i-th ranked
// item of a strategy (0-indexed, list length L) contributes
// weight * (1 - i/L) to its fused score.
type FusionWeights struct {
	// Collaborative is always consulted.
	Collaborative float64 `json:"collaborative" koanf:"collaborative"`

	// Content is consulted when a seed item is given.
	Content float64 `json:"content" koanf:"content"`

	// Location is consulted when a location is given.
	Location float64 `json:"location" koanf:"location"`

	// Popularity is always consulted as the baseline.
	Popularity float64 `json:"popularity" koanf:"popularity"`
}

// CollaborativeConfig contains the collaborative scoring sub-weights:
// score = Genre*genreWeight + Creator*creatorWeight +
// Popularity*normalizedPlays + Freshness*(1-freshness).
type CollaborativeConfig struct {
	// Genre is the weight on accumulated genre preference. Default: 0.4.
	Genre float64 `json:"genre" koanf:"genre"`

	// Creator is the weight on accumulated creator preference. Default: 0.3.
	Creator float64 `json:"creator" koanf:"creator"`

	// Popularity is the weight on normalized play count. Default: 0.2.
	Popularity float64 `json:"popularity" koanf:"popularity"`

	// Freshness is the weight on item recency. Default: 0.1.
	Freshness float64 `json:"freshness" koanf:"freshness"`

	// FreshnessHorizonDays is the age at which an item stops counting as
	// fresh. Default: 365.
	FreshnessHorizonDays int `json:"freshness_horizon_days" koanf:"freshness_horizon_days"`
}

// FeatureConfig contains feature construction parameters.
type FeatureConfig struct {
	// GenreVectorSize is the width of the genre text encoding.
	// Default: 64.
	GenreVectorSize int `json:"genre_vector_size" koanf:"genre_vector_size"`

	// LocationVectorSize is the width of the location text encoding.
	// Default: 32.
	LocationVectorSize int `json:"location_vector_size" koanf:"location_vector_size"`
}

// ReduceConfig contains dimensionality reduction and clustering parameters.
type ReduceConfig struct {
	// Rank is the target embedding rank. Capped by the available
	// dimensionality at train time. Default: 50.
	Rank int `json:"rank" koanf:"rank"`

	// Clusters is the number of k-means centroids. Capped by the item
	// count at train time. Default: 50.
	Clusters int `json:"clusters" koanf:"clusters"`

	// BatchSize is the mini-batch size for clustering. Default: 256.
	BatchSize int `json:"batch_size" koanf:"batch_size"`

	// Iterations is the number of mini-batch updates. Default: 25.
	Iterations int `json:"iterations" koanf:"iterations"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultCount is the result length when the caller passes zero.
	// Default: 10.
	DefaultCount int `json:"default_count" koanf:"default_count"`

	// MaxCount is the maximum allowed result length. Default: 100.
	MaxCount int `json:"max_count" koanf:"max_count"`

	// ChunkSize is the default ingestion chunk size when the caller
	// passes zero. Default: 1000.
	ChunkSize int `json:"chunk_size" koanf:"chunk_size"`

	// HistoryLimit caps per-user interaction history length.
	// The seen-item exclusion set is never capped. Default: 1000.
	HistoryLimit int `json:"history_limit" koanf:"history_limit"`
}

// CacheConfig contains result cache parameters.
type CacheConfig struct {
	// Enabled controls whether result caching is active. Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Capacity is the maximum number of cached result lists. The oldest
	// inserted entry is evicted first (FIFO). Default: 1000.
	Capacity int `json:"capacity" koanf:"capacity"`
}

// DefaultConfig returns a Config with production defaults matching the
// documented fusion and scoring weights.
func DefaultConfig() *Config {
	return &Config{
		Fusion: FusionWeights{
			Collaborative: 0.4,
			Content:       0.3,
			Location:      0.2,
			Popularity:    0.1,
		},
		Collaborative: CollaborativeConfig{
			Genre:                0.4,
			Creator:              0.3,
			Popularity:           0.2,
			Freshness:            0.1,
			FreshnessHorizonDays: 365,
		},
		Features: FeatureConfig{
			GenreVectorSize:    64,
			LocationVectorSize: 32,
		},
		Reduce: ReduceConfig{
			Rank:       50,
			Clusters:   50,
			BatchSize:  256,
			Iterations: 25,
		},
		Limits: LimitsConfig{
			DefaultCount: 10,
			MaxCount:     100,
			ChunkSize:    1000,
			HistoryLimit: 1000,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 1000,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Fusion.Collaborative < 0 || c.Fusion.Content < 0 ||
		c.Fusion.Location < 0 || c.Fusion.Popularity < 0 {
		return fmt.Errorf("fusion weights must be non-negative")
	}
	if c.Collaborative.FreshnessHorizonDays < 1 {
		return fmt.Errorf("collaborative.freshness_horizon_days must be positive, got %d", c.Collaborative.FreshnessHorizonDays)
	}
	if c.Features.GenreVectorSize < 1 {
		return fmt.Errorf("features.genre_vector_size must be positive, got %d", c.Features.GenreVectorSize)
	}
	if c.Features.LocationVectorSize < 1 {
		return fmt.Errorf("features.location_vector_size must be positive, got %d", c.Features.LocationVectorSize)
	}
	if c.Reduce.Rank < 1 {
		return fmt.Errorf("reduce.rank must be positive, got %d", c.Reduce.Rank)
	}
	if c.Reduce.Clusters < 1 {
		return fmt.Errorf("reduce.clusters must be positive, got %d", c.Reduce.Clusters)
	}
	if c.Reduce.BatchSize < 1 {
		return fmt.Errorf("reduce.batch_size must be positive, got %d", c.Reduce.BatchSize)
	}
	if c.Reduce.Iterations < 1 {
		return fmt.Errorf("reduce.iterations must be positive, got %d", c.Reduce.Iterations)
	}
	if c.Limits.DefaultCount < 1 {
		return fmt.Errorf("limits.default_count must be positive, got %d", c.Limits.DefaultCount)
	}
	if c.Limits.MaxCount < c.Limits.DefaultCount {
		return fmt.Errorf("limits.max_count must be >= limits.default_count, got %d < %d", c.Limits.MaxCount, c.Limits.DefaultCount)
	}
	if c.Limits.ChunkSize < 1 {
		return fmt.Errorf("limits.chunk_size must be positive, got %d", c.Limits.ChunkSize)
	}
	if c.Limits.HistoryLimit < 1 {
		return fmt.Errorf("limits.history_limit must be positive, got %d", c.Limits.HistoryLimit)
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types
	clone := *c
	return &clone
}
