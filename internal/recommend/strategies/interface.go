// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

// Package strategies provides the four independent scorers behind the
// recommendation engine: collaborative, content-based, location-based
// and popularity. Each scorer ranks against an immutable view of the
// trained model and never mutates engine state.
package strategies

import (
	"sort"

	"github.com/tunegraph/tunegraph/internal/recommend"
)

// Install registers the default strategy set on an engine.
func Install(eng *recommend.Engine, cfg *recommend.Config) {
	popularity := NewPopularity()
	eng.RegisterStrategy(popularity)
	eng.RegisterStrategy(NewCollaborative(cfg.Collaborative, popularity))
	eng.RegisterStrategy(NewContentBased())
	eng.RegisterStrategy(NewLocationBased())
}

// scored pairs an item's metadata-table index with its strategy score.
type scored struct {
	idx   int
	score float64
}

// rankIDs sorts candidates by score descending and returns their item
// identifiers. The sort is stable, so score ties keep original
// metadata-table order as long as candidates arrive index-ordered.
func rankIDs(model *recommend.Model, candidates []scored) []string {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = model.Items[c.idx].ID
	}
	return ids
}

// normalizedPlays returns the item's play count scaled by the maximum
// observed count, or zero when no play data exists.
func normalizedPlays(model *recommend.Model, item recommend.Item) float64 {
	if model.MaxPlays <= 0 {
		return 0
	}
	return float64(item.Plays) / float64(model.MaxPlays)
}
