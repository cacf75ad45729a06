// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/tunegraph/tunegraph/internal/metrics"
	"github.com/tunegraph/tunegraph/internal/recommend/snapshot"
)

// Snapshot section names. Each sub-structure is persisted independently
// so partial loads and per-section format evolution stay possible.
const (
	sectionFeatures = "features"
	sectionProfiles = "profiles"
	sectionModel    = "model"
	sectionCache    = "cache"
	sectionStats    = "stats"
)

type featuresSection struct {
	Builder *FeatureBuilder
	Matrix  [][]float64
}

type profilesSection struct {
	Profiles map[string]*UserProfile
}

type modelSection struct {
	Model *Model
}

type cacheSection struct {
	Items map[string][]string
	Order []string
}

type statsSection struct {
	Requests     int64
	CacheHits    int64
	LatencyNanos int64
}

// SaveSnapshot persists the full engine state to dir as one new snapshot
// version: feature table, profiles, trained model, result cache and
// serving statistics. A positive keepVersions prunes each section down
// to that many retained versions after the save; zero or negative keeps
// everything. I/O failures are surfaced; the engine keeps operating
// in-memory regardless.
func (e *Engine) SaveSnapshot(ctx context.Context, dir string, keepVersions int) error {
	start := time.Now()
	err := e.saveSnapshot(ctx, dir, keepVersions)
	metrics.RecordSnapshot("save", time.Since(start), err)
	return err
}

func (e *Engine) saveSnapshot(ctx context.Context, dir string, keepVersions int) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	store, err := snapshot.NewStore(dir)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	e.mu.Lock()
	features := featuresSection{Builder: e.builder, Matrix: e.matrix}
	model := modelSection{Model: e.model}
	profiles := profilesSection{Profiles: make(map[string]*UserProfile, e.profiles.Len())}
	for id, p := range e.profiles.Profiles {
		profiles.Profiles[id] = p.Clone()
	}
	e.mu.Unlock()

	cacheItems, cacheOrder := e.cache.Snapshot()
	stats := statsSection{
		Requests:     e.requests.Load(),
		CacheHits:    e.cacheHits.Load(),
		LatencyNanos: e.latencyNanos.Load(),
	}

	version := 1
	if latest, ok := store.LatestVersion(sectionModel); ok {
		version = latest + 1
	}

	sections := []struct {
		name    string
		payload any
	}{
		{sectionFeatures, features},
		{sectionProfiles, profiles},
		{sectionModel, model},
		{sectionCache, cacheSection{Items: cacheItems, Order: cacheOrder}},
		{sectionStats, stats},
	}
	for _, sec := range sections {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if err := store.Save(sec.name, version, sec.payload); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	// The new version is durable at this point; a failed prune only
	// leaves extra files behind.
	if keepVersions > 0 {
		for _, sec := range sections {
			if err := store.Prune(sec.name, keepVersions); err != nil {
				e.logger.Warn().Err(err).Str("section", sec.name).Msg("snapshot prune failed")
			}
		}
	}

	e.logger.Info().
		Str("dir", dir).
		Int("version", version).
		Msg("snapshot saved")
	return nil
}

// LoadSnapshot restores engine state from the latest snapshot version in
// dir. The model section is required; cache and stats sections are
// optional and skipped with a warning when absent or unreadable.
func (e *Engine) LoadSnapshot(ctx context.Context, dir string) error {
	start := time.Now()
	err := e.loadSnapshot(ctx, dir)
	metrics.RecordSnapshot("load", time.Since(start), err)
	return err
}

func (e *Engine) loadSnapshot(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	store, err := snapshot.NewStore(dir)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var model modelSection
	meta, err := store.Load(sectionModel, 0, &model)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	version := meta.Version

	var features featuresSection
	if _, err := store.Load(sectionFeatures, version, &features); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	var profiles profilesSection
	if _, err := store.Load(sectionProfiles, version, &profiles); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	var cacheSec cacheSection
	cacheLoaded := true
	if _, err := store.Load(sectionCache, version, &cacheSec); err != nil {
		cacheLoaded = false
		e.logger.Warn().Err(err).Msg("snapshot cache section unavailable, starting cold")
	}
	var stats statsSection
	statsLoaded := true
	if _, err := store.Load(sectionStats, version, &stats); err != nil {
		statsLoaded = false
		e.logger.Warn().Err(err).Msg("snapshot stats section unavailable, counters reset")
	}

	e.mu.Lock()
	if features.Builder != nil {
		e.builder = features.Builder
	}
	e.matrix = features.Matrix
	if model.Model != nil {
		if model.Model.Index == nil {
			model.Model.Index = make(map[string]int)
		}
		e.model = model.Model
	} else {
		e.model = newModel()
	}
	e.profiles = NewProfileStore(e.cfg.Limits.HistoryLimit)
	for id, p := range profiles.Profiles {
		if p != nil {
			e.profiles.Profiles[id] = p
		}
	}
	e.warmed = true
	e.mu.Unlock()

	if cacheLoaded {
		e.cache.Restore(cacheSec.Items, cacheSec.Order)
	} else {
		e.cache.Clear()
	}
	if statsLoaded {
		e.requests.Store(stats.Requests)
		e.cacheHits.Store(stats.CacheHits)
		e.latencyNanos.Store(stats.LatencyNanos)
	}

	metrics.CatalogItems.Set(float64(e.ItemCount()))
	metrics.UserProfiles.Set(float64(len(profiles.Profiles)))
	metrics.CacheSize.Set(float64(e.cache.Len()))

	e.logger.Info().
		Str("dir", dir).
		Int("version", version).
		Int("items", e.ItemCount()).
		Int("profiles", len(profiles.Profiles)).
		Msg("snapshot loaded")
	return nil
}
