// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package strategies

import (
	"context"

	"github.com/tunegraph/tunegraph/internal/recommend"
)

// ContentBased ranks items by their averaged cosine similarity to one
// or more seed items in the reduced embedding space.
type ContentBased struct{}

// NewContentBased creates the content-based scorer.
func NewContentBased() *ContentBased {
	return &ContentBased{}
}

func (s *ContentBased) Name() string { return recommend.StrategyContentBased }

// Rank averages the similarity-matrix rows of the resolved seeds across
// all items and returns the highest-similarity items, seeds excluded.
// Unknown seed ids are skipped; with no resolved seed or an untrained
// model the result is empty.
func (s *ContentBased) Rank(_ context.Context, view *recommend.View, q recommend.Query) []string {
	if !view.Model.Trained || len(view.Model.Similarity) == 0 {
		return nil
	}

	seedIdx := make(map[int]struct{}, len(q.SeedIDs))
	for _, id := range q.SeedIDs {
		if idx, ok := view.Model.Index[id]; ok {
			seedIdx[idx] = struct{}{}
		}
	}
	if len(seedIdx) == 0 {
		return nil
	}

	n := len(view.Model.Items)
	avg := make([]float64, n)
	for idx := range seedIdx {
		row := view.Model.Similarity[idx]
		for j := 0; j < n; j++ {
			avg[j] += row[j]
		}
	}
	inv := 1 / float64(len(seedIdx))

	candidates := make([]scored, 0, n-len(seedIdx))
	for idx := 0; idx < n; idx++ {
		if _, isSeed := seedIdx[idx]; isSeed {
			continue
		}
		candidates = append(candidates, scored{idx: idx, score: avg[idx] * inv})
	}
	return rankIDs(view.Model, candidates)
}
