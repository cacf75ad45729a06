// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package strategies

import (
	"context"
	"math/rand"

	"github.com/tunegraph/tunegraph/internal/recommend"
)

// Popularity ranks items by play count. It also serves as the fallback
// for collaborative queries from unknown users.
type Popularity struct{}

// NewPopularity creates the popularity scorer.
func NewPopularity() *Popularity {
	return &Popularity{}
}

func (s *Popularity) Name() string { return recommend.StrategyPopularity }

// Rank orders items by descending play count. When no item carries
// play-count data the ranking is a seeded pseudo-random permutation, so
// repeated calls without data stay deterministic.
func (s *Popularity) Rank(_ context.Context, view *recommend.View, _ recommend.Query) []string {
	n := len(view.Model.Items)
	if n == 0 {
		return nil
	}

	if !view.Model.HasPlays {
		rng := rand.New(rand.NewSource(view.Seed)) //nolint:gosec // reproducible sample, not crypto
		ids := make([]string, n)
		for i, idx := range rng.Perm(n) {
			ids[i] = view.Model.Items[idx].ID
		}
		return ids
	}

	candidates := make([]scored, n)
	for idx, item := range view.Model.Items {
		candidates[idx] = scored{idx: idx, score: float64(item.Plays)}
	}
	return rankIDs(view.Model, candidates)
}
