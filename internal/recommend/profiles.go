// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import "time"

// ProfileStore accumulates per-user preference state. It carries no lock
// of its own: the engine's mutex sequences all mutations, so interleaved
// worker calls against the same user never race (spelled out in the
// engine's concurrency contract).
type ProfileStore struct {
	// Profiles maps user ID to profile. Exported for gob snapshots.
	Profiles map[string]*UserProfile

	// HistoryLimit caps per-user history length. The seen set is never
	// capped.
	HistoryLimit int
}

// NewProfileStore creates an empty store.
func NewProfileStore(historyLimit int) *ProfileStore {
	return &ProfileStore{
		Profiles:     make(map[string]*UserProfile),
		HistoryLimit: historyLimit,
	}
}

// Apply adds one interaction against a resolved item to the user's
// profile, creating the profile lazily on first interaction. The weight
// follows the interaction kind; weighted counts only grow.
func (s *ProfileStore) Apply(userID string, item Item, kind string, ts time.Time) {
	prof, ok := s.Profiles[userID]
	if !ok {
		prof = newUserProfile()
		s.Profiles[userID] = prof
	}

	weight := InteractionWeight(kind)
	prof.Genres[item.Genre] += weight
	prof.Creators[item.CreatorID] += weight
	prof.Locations[item.Location] += weight

	prof.History = append(prof.History, InteractionEvent{
		ItemID:    item.ID,
		Kind:      kind,
		Timestamp: ts,
		Weight:    weight,
	})
	if len(prof.History) > s.HistoryLimit {
		prof.History = prof.History[len(prof.History)-s.HistoryLimit:]
	}
	prof.Seen[item.ID] = true
	prof.UpdatedAt = ts
}

// Get returns the profile for a user, or nil if the user is unknown.
func (s *ProfileStore) Get(userID string) *UserProfile {
	return s.Profiles[userID]
}

// Len returns the number of known users.
func (s *ProfileStore) Len() int {
	return len(s.Profiles)
}
