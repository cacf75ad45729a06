// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

// Package recommend implements the personalized recommendation engine:
// feature construction from raw item and interaction records, chunked
// batch ingestion, dimensionality reduction and clustering, four
// independent scoring strategies, their weighted fusion, and a bounded
// result cache with serving statistics.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tunegraph/tunegraph/internal/cache"
	"github.com/tunegraph/tunegraph/internal/metrics"
)

// Canonical strategy names used in cache keys and registration.
const (
	StrategyCollaborative = "collaborative"
	StrategyContentBased  = "content"
	StrategyLocationBased = "location"
	StrategyPopularity    = "popularity"
	StrategyPersonalized  = "personalized"
)

// Engine is the shared recommendation engine instance. One engine serves
// all request workers; a single mutex sequences dataset mutation, profile
// mutation and lazy first-use initialization, while scoring runs against
// immutable snapshots outside the lock.
type Engine struct {
	cfg    *Config
	logger zerolog.Logger

	mu       sync.Mutex
	builder  *FeatureBuilder
	matrix   [][]float64
	model    *Model
	profiles *ProfileStore
	source   RecordSource
	warmed   bool

	strategies map[string]Strategy
	cache      cache.ResultCache

	requests     atomic.Int64
	cacheHits    atomic.Int64
	latencyNanos atomic.Int64
}

// NewEngine creates an engine with the given configuration. A nil config
// uses production defaults. Strategies are registered separately by the
// composing process.
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	cfg = cfg.Clone()
	if cfg.Seed == 0 {
		cfg.Seed = DefaultConfig().Seed
	}

	return &Engine{
		cfg:        cfg,
		logger:     logger.With().Str("component", "engine").Logger(),
		builder:    NewFeatureBuilder(cfg.Features),
		model:      newModel(),
		profiles:   NewProfileStore(cfg.Limits.HistoryLimit),
		strategies: make(map[string]Strategy),
		cache:      cache.NewFIFO(cfg.Cache.Capacity),
	}, nil
}

func newModel() *Model {
	return &Model{Index: make(map[string]int)}
}

// cloneModel copies the mutable parts of a model so ingestion can build a
// replacement while readers keep the previous snapshot. Trained artifacts
// are shared; they are only ever replaced wholesale by Train.
func cloneModel(m *Model) *Model {
	c := &Model{
		Items:      append([]Item(nil), m.Items...),
		Index:      make(map[string]int, len(m.Index)),
		MaxPlays:   m.MaxPlays,
		HasPlays:   m.HasPlays,
		Reduced:    m.Reduced,
		Clusters:   m.Clusters,
		Similarity: m.Similarity,
		Trained:    m.Trained,
	}
	for k, v := range m.Index {
		c.Index[k] = v
	}
	return c
}

// RegisterStrategy registers a scorer under its canonical name.
func (e *Engine) RegisterStrategy(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[s.Name()] = s
}

// SetSource sets the record source used for lazy first-use loading.
func (e *Engine) SetSource(src RecordSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.source = src
}

// LoadBatch ingests item and interaction records in fixed-size chunks,
// extending the current in-memory dataset. A chunkSize of zero uses the
// configured default. New items invalidate trained artifacts and the
// result cache; Train must run again before similarity-based scoring.
func (e *Engine) LoadBatch(ctx context.Context, items []ItemRecord, interactions []InteractionRecord, chunkSize int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadBatchLocked(ctx, items, interactions, chunkSize)
}

func (e *Engine) loadBatchLocked(ctx context.Context, items []ItemRecord, interactions []InteractionRecord, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = e.cfg.Limits.ChunkSize
	}

	model := cloneModel(e.model)
	ld := &loader{
		builder:   e.builder,
		model:     model,
		matrix:    e.matrix,
		profiles:  e.profiles,
		chunkSize: chunkSize,
		logger:    e.logger,
	}

	added, err := ld.ingestItems(ctx, items)
	if err != nil {
		return fmt.Errorf("ingest items: %w", err)
	}
	applied, err := ld.ingestInteractions(ctx, interactions)
	if err != nil {
		return fmt.Errorf("ingest interactions: %w", err)
	}

	if added > 0 {
		// Existing embeddings no longer cover the full catalog.
		model.Reduced = nil
		model.Clusters = nil
		model.Similarity = nil
		model.Trained = false
	}
	e.matrix = ld.matrix
	e.model = model
	e.warmed = true
	e.cache.Clear()

	metrics.CatalogItems.Set(float64(len(model.Items)))
	metrics.UserProfiles.Set(float64(e.profiles.Len()))
	metrics.CacheSize.Set(0)

	e.logger.Info().
		Int("items_added", added).
		Int("interactions_applied", applied).
		Int("catalog_size", len(model.Items)).
		Int("chunk_size", chunkSize).
		Msg("batch loaded")
	return nil
}

// Reset clears the loaded dataset, profiles, trained artifacts and the
// result cache for a full reload. Fitted feature vocabularies are kept so
// feature columns stay aligned with any persisted matrices.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.model = newModel()
	e.matrix = nil
	e.profiles = NewProfileStore(e.cfg.Limits.HistoryLimit)
	e.cache.Clear()
	e.warmed = false

	metrics.CatalogItems.Set(0)
	metrics.UserProfiles.Set(0)
	metrics.CacheSize.Set(0)

	e.logger.Info().Msg("engine reset")
}

// Train recomputes the reduced embedding, cluster labels and similarity
// matrix from the full accumulated dataset. It always runs over the
// concatenated matrix, never per chunk, and clears the result cache on
// success. Training with an empty dataset is a logged no-op.
func (e *Engine) Train(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.trainLocked(ctx)
}

func (e *Engine) trainLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if len(e.matrix) == 0 {
		metrics.TrainingRuns.WithLabelValues("skipped").Inc()
		e.logger.Warn().Msg("train called with empty dataset, skipping")
		return nil
	}

	start := time.Now()

	var scaler Scaler
	scaled := scaler.FitTransform(e.matrix)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	res := NewReducer(e.cfg.Reduce).Fit(scaled, e.cfg.Seed)

	model := cloneModel(e.model)
	model.Reduced = res.Reduced
	model.Clusters = res.Clusters
	model.Similarity = res.Similarity
	model.Trained = true
	e.model = model
	e.cache.Clear()
	metrics.CacheSize.Set(0)

	duration := time.Since(start)
	metrics.RecordTraining(duration, nil)

	e.logger.Info().
		Int("items", len(model.Items)).
		Int("rank", res.Rank).
		Int("feature_width", e.builder.Width()).
		Dur("duration", duration).
		Msg("training pass complete")
	return nil
}

// ensureWarm performs the one-time lazy load and train from the record
// source. Exactly one caller does the work; concurrent callers block on
// the engine lock until it completes. Failures are logged and the engine
// keeps serving best-effort empty results.
func (e *Engine) ensureWarm(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.warmed {
		return
	}
	e.warmed = true
	if e.source == nil {
		return
	}

	items, err := e.source.Items(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("lazy load: fetching items failed")
		return
	}
	interactions, err := e.source.Interactions(ctx)
	if err != nil {
		e.logger.Error().Err(err).Msg("lazy load: fetching interactions failed")
		return
	}
	if err := e.loadBatchLocked(ctx, items, interactions, 0); err != nil {
		e.logger.Error().Err(err).Msg("lazy load failed")
		return
	}
	if err := e.trainLocked(ctx); err != nil {
		e.logger.Error().Err(err).Msg("lazy train failed")
	}
}

// view snapshots the state strategies are allowed to read. The profile is
// deep-copied so scoring can proceed outside the lock.
func (e *Engine) view(userID string) *View {
	e.mu.Lock()
	defer e.mu.Unlock()

	v := &View{
		Model: e.model,
		Now:   time.Now().UTC(),
		Seed:  e.cfg.Seed,
	}
	if userID != "" {
		if p := e.profiles.Get(userID); p != nil {
			v.Profile = p.Clone()
		}
	}
	return v
}

// serve runs one strategy lookup through the cache. The returned list is
// the strategy's full ranking; callers truncate to the requested count.
func (e *Engine) serve(ctx context.Context, strategyName, key string, q Query) ([]string, error) {
	start := time.Now()
	defer func() {
		e.requests.Add(1)
		e.latencyNanos.Add(time.Since(start).Nanoseconds())
	}()

	e.ensureWarm(ctx)

	if e.cfg.Cache.Enabled {
		if ids, ok := e.cache.Get(key); ok {
			e.cacheHits.Add(1)
			metrics.CacheHits.Inc()
			return ids, nil
		}
		metrics.CacheMisses.Inc()
	}

	e.mu.Lock()
	strat, ok := e.strategies[strategyName]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("strategy %q not registered", strategyName)
	}

	ids := strat.Rank(ctx, e.view(q.UserID), q)

	if e.cfg.Cache.Enabled {
		e.cache.Set(key, ids)
		metrics.CacheSize.Set(float64(e.cache.Len()))
	}
	return ids, nil
}

// RecommendCollaborative returns up to count items scored against the
// user's accumulated preferences, excluding items the user has already
// interacted with. Unknown users fall back to popularity.
func (e *Engine) RecommendCollaborative(ctx context.Context, userID string, count int) ([]string, error) {
	count = e.clampCount(count)
	start := time.Now()

	key := cacheKey(StrategyCollaborative, count, "u="+userID)
	ids, err := e.serve(ctx, StrategyCollaborative, key, Query{UserID: userID, Count: count})
	if err != nil {
		return nil, err
	}

	result := truncated(ids, count)
	metrics.RecordRecommendation(StrategyCollaborative, len(result), time.Since(start))
	return result, nil
}

// RecommendContentBased returns up to count items most similar to the
// seed items in the reduced embedding space. Seeds never appear in the
// result; unknown seeds are skipped.
func (e *Engine) RecommendContentBased(ctx context.Context, seedIDs []string, count int) ([]string, error) {
	count = e.clampCount(count)
	start := time.Now()

	key := cacheKey(StrategyContentBased, count, "s="+strings.Join(seedIDs, ","))
	ids, err := e.serve(ctx, StrategyContentBased, key, Query{SeedIDs: seedIDs, Count: count})
	if err != nil {
		return nil, err
	}

	result := truncated(ids, count)
	metrics.RecordRecommendation(StrategyContentBased, len(result), time.Since(start))
	return result, nil
}

// RecommendLocationBased returns up to count items ranked by geographic
// affinity to the requested location tag.
func (e *Engine) RecommendLocationBased(ctx context.Context, location string, count int) ([]string, error) {
	count = e.clampCount(count)
	start := time.Now()

	key := cacheKey(StrategyLocationBased, count, "l="+strings.ToLower(location))
	ids, err := e.serve(ctx, StrategyLocationBased, key, Query{Location: location, Count: count})
	if err != nil {
		return nil, err
	}

	result := truncated(ids, count)
	metrics.RecordRecommendation(StrategyLocationBased, len(result), time.Since(start))
	return result, nil
}

// RecommendPopular returns up to count items ranked by play count, or a
// seeded deterministic sample when no play-count data exists.
func (e *Engine) RecommendPopular(ctx context.Context, count int) ([]string, error) {
	count = e.clampCount(count)
	start := time.Now()

	key := cacheKey(StrategyPopularity, count, "")
	ids, err := e.serve(ctx, StrategyPopularity, key, Query{Count: count})
	if err != nil {
		return nil, err
	}

	result := truncated(ids, count)
	metrics.RecordRecommendation(StrategyPopularity, len(result), time.Since(start))
	return result, nil
}

// RecommendPersonalized blends the strategies into one ranking:
// collaborative always, content-based when a seed item is given,
// location-based when a location is given, popularity always. Each
// strategy's i-th ranked item (0-indexed, list length L) contributes
// weight * (1 - i/L); per-item contributions are summed across
// strategies and the result is sorted descending, ties broken by
// catalog order.
func (e *Engine) RecommendPersonalized(ctx context.Context, userID, seedItemID, location string, count int) ([]string, error) {
	count = e.clampCount(count)
	start := time.Now()
	defer func() {
		e.requests.Add(1)
		e.latencyNanos.Add(time.Since(start).Nanoseconds())
	}()

	params := fmt.Sprintf("u=%s:s=%s:l=%s", userID, seedItemID, strings.ToLower(location))
	key := cacheKey(StrategyPersonalized, count, params)
	if e.cfg.Cache.Enabled {
		if ids, ok := e.cache.Get(key); ok {
			e.cacheHits.Add(1)
			metrics.CacheHits.Inc()
			metrics.RecordRecommendation(StrategyPersonalized, len(ids), time.Since(start))
			return truncated(ids, count), nil
		}
		metrics.CacheMisses.Inc()
	}

	type part struct {
		weight float64
		ids    []string
	}
	parts := make([]part, 0, 4)

	collab, err := e.serve(ctx, StrategyCollaborative, cacheKey(StrategyCollaborative, count, "u="+userID), Query{UserID: userID, Count: count})
	if err != nil {
		return nil, err
	}
	parts = append(parts, part{e.cfg.Fusion.Collaborative, collab})

	if seedItemID != "" {
		content, err := e.serve(ctx, StrategyContentBased, cacheKey(StrategyContentBased, count, "s="+seedItemID), Query{SeedIDs: []string{seedItemID}, Count: count})
		if err != nil {
			return nil, err
		}
		parts = append(parts, part{e.cfg.Fusion.Content, content})
	}

	if location != "" {
		loc, err := e.serve(ctx, StrategyLocationBased, cacheKey(StrategyLocationBased, count, "l="+strings.ToLower(location)), Query{Location: location, Count: count})
		if err != nil {
			return nil, err
		}
		parts = append(parts, part{e.cfg.Fusion.Location, loc})
	}

	pop, err := e.serve(ctx, StrategyPopularity, cacheKey(StrategyPopularity, count, ""), Query{Count: count})
	if err != nil {
		return nil, err
	}
	parts = append(parts, part{e.cfg.Fusion.Popularity, pop})

	scores := make(map[string]float64)
	for _, p := range parts {
		n := float64(len(p.ids))
		for i, id := range p.ids {
			scores[id] += p.weight * (1 - float64(i)/n)
		}
	}

	e.mu.Lock()
	index := e.model.Index
	e.mu.Unlock()

	fused := make([]string, 0, len(scores))
	for id := range scores {
		fused = append(fused, id)
	}
	sort.Slice(fused, func(i, j int) bool {
		si, sj := scores[fused[i]], scores[fused[j]]
		if si != sj {
			return si > sj
		}
		return index[fused[i]] < index[fused[j]]
	})
	if len(fused) > count {
		fused = fused[:count]
	}

	if e.cfg.Cache.Enabled {
		e.cache.Set(key, fused)
		metrics.CacheSize.Set(float64(e.cache.Len()))
	}
	metrics.RecordRecommendation(StrategyPersonalized, len(fused), time.Since(start))
	return truncated(fused, count), nil
}

// ApplyInteraction updates the user's profile from one interaction.
// Interactions referencing unknown items are logged and skipped; the
// return value reports whether the profile was mutated. Profile mutation
// invalidates the result cache.
func (e *Engine) ApplyInteraction(userID, itemID, kind string, ts time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, ok := e.model.Index[itemID]
	if !ok {
		e.logger.Warn().
			Str("user_id", userID).
			Str("item_id", itemID).
			Msg("interaction for unknown item skipped")
		return false
	}
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	e.profiles.Apply(userID, e.model.Items[idx], kind, ts)
	e.cache.Clear()

	metrics.UserProfiles.Set(float64(e.profiles.Len()))
	metrics.CacheSize.Set(0)
	return true
}

// Stats returns the engine's serving statistics.
func (e *Engine) Stats() Stats {
	requests := e.requests.Load()
	s := Stats{
		RequestsServed: requests,
		CacheHits:      e.cacheHits.Load(),
	}
	if requests > 0 {
		s.AvgResponseTimeSeconds = time.Duration(e.latencyNanos.Load() / requests).Seconds()
	}
	return s
}

// ItemCount returns the number of loaded catalog items.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.model.Items)
}

// Trained reports whether a training pass covers the current dataset.
func (e *Engine) Trained() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Trained
}

// clampCount normalizes a requested result length.
func (e *Engine) clampCount(count int) int {
	if count <= 0 {
		return e.cfg.Limits.DefaultCount
	}
	if count > e.cfg.Limits.MaxCount {
		return e.cfg.Limits.MaxCount
	}
	return count
}

// cacheKey builds the composite cache key for a lookup.
func cacheKey(strategy string, count int, params string) string {
	var b strings.Builder
	b.WriteString(strategy)
	b.WriteByte(':')
	b.WriteString(params)
	b.WriteString(":k=")
	b.WriteString(strconv.Itoa(count))
	return b.String()
}

// truncated returns a copy of at most n leading ids, so callers never
// alias cached slices.
func truncated(ids []string, n int) []string {
	if len(ids) > n {
		ids = ids[:n]
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
