// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package strategies

import (
	"context"
	"strings"

	"github.com/tunegraph/tunegraph/internal/recommend"
)

const (
	locScoreMatch     = 2.0
	locScoreNonGlobal = 1.5
	locScoreGlobal    = 1.0

	// locTierWeight scales affinity so the smallest tier gap (0.5)
	// always exceeds the normalized play range [0,1].
	locTierWeight = 4.0
)

// LocationBased ranks items by geographic affinity to a requested
// location tag.
type LocationBased struct{}

// NewLocationBased creates the location-based scorer.
func NewLocationBased() *LocationBased {
	return &LocationBased{}
}

func (s *LocationBased) Name() string { return recommend.StrategyLocationBased }

// Rank matches the requested location as a case-insensitive substring
// of each item's location tag. When enough direct matches exist they
// are returned ranked by play count; otherwise all items are ranked by
// affinity tier, with play count ordering items inside a tier, up to
// twice the requested count.
func (s *LocationBased) Rank(_ context.Context, view *recommend.View, q recommend.Query) []string {
	want := strings.ToLower(strings.TrimSpace(q.Location))

	matches := make([]scored, 0, len(view.Model.Items))
	for idx, item := range view.Model.Items {
		if want != "" && strings.Contains(strings.ToLower(item.Location), want) {
			matches = append(matches, scored{idx: idx, score: float64(item.Plays)})
		}
	}
	if len(matches) >= q.Count && q.Count > 0 {
		return rankIDs(view.Model, matches)
	}

	// Not enough direct matches: fall back to scoring the whole catalog
	// by location affinity, preferring any regional tag over "global".
	candidates := make([]scored, 0, len(view.Model.Items))
	for idx, item := range view.Model.Items {
		tag := strings.ToLower(item.Location)
		var affinity float64
		switch {
		case want != "" && strings.Contains(tag, want):
			affinity = locScoreMatch
		case tag != defaultLocationTag:
			affinity = locScoreNonGlobal
		default:
			affinity = locScoreGlobal
		}
		candidates = append(candidates, scored{idx: idx, score: affinity*locTierWeight + normalizedPlays(view.Model, item)})
	}
	ids := rankIDs(view.Model, candidates)
	if limit := 2 * q.Count; q.Count > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

const defaultLocationTag = "global"
