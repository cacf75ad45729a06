// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package strategies

import (
	"context"

	"github.com/tunegraph/tunegraph/internal/recommend"
)

// Collaborative scores candidate items against a user's accumulated
// preference weights. Items already interacted with are excluded. An
// unknown user falls back to the popularity scorer.
type Collaborative struct {
	cfg      recommend.CollaborativeConfig
	fallback recommend.Strategy
}

// NewCollaborative creates the collaborative scorer. The fallback
// strategy serves users with no profile.
func NewCollaborative(cfg recommend.CollaborativeConfig, fallback recommend.Strategy) *Collaborative {
	return &Collaborative{cfg: cfg, fallback: fallback}
}

func (s *Collaborative) Name() string { return recommend.StrategyCollaborative }

// Rank scores every item the user has not interacted with as a weighted
// sum of genre affinity, creator affinity, normalized popularity and
// recency. Genres and creators the user never interacted with
// contribute zero; no diversity bonus is added for mismatches.
func (s *Collaborative) Rank(ctx context.Context, view *recommend.View, q recommend.Query) []string {
	if view.Profile == nil {
		return s.fallback.Rank(ctx, view, q)
	}

	horizon := float64(s.cfg.FreshnessHorizonDays)
	candidates := make([]scored, 0, len(view.Model.Items))
	for idx, item := range view.Model.Items {
		if view.Profile.Seen[item.ID] {
			continue
		}

		ageDays := view.Now.Sub(item.CreatedAt).Hours() / 24
		freshness := ageDays / horizon
		if freshness > 1 {
			freshness = 1
		}
		if freshness < 0 {
			freshness = 0
		}

		score := s.cfg.Genre*view.Profile.Genres[item.Genre] +
			s.cfg.Creator*view.Profile.Creators[item.CreatorID] +
			s.cfg.Popularity*normalizedPlays(view.Model, item) +
			s.cfg.Freshness*(1-freshness)
		candidates = append(candidates, scored{idx: idx, score: score})
	}
	return rankIDs(view.Model, candidates)
}
