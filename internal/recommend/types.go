// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"context"
	"time"
)

// Note: This package never depends on a concrete storage layer. The
// RecordSource interface allows integration with whatever storage the
// composing process provides.

// ItemRecord is the wire form of a catalog item as supplied by the storage
// collaborator. Optional numeric fields are pointers so that "absent" and
// "zero" stay distinguishable; optional strings are empty when absent.
type ItemRecord struct {
	// ID is the unique, stable item identifier.
	ID string `json:"id"`

	// Title is the display title (unused for scoring).
	Title string `json:"title,omitempty"`

	// Genre is a free-text genre label.
	Genre string `json:"genre,omitempty"`

	// CreatorID identifies the item's creator.
	CreatorID string `json:"creatorId,omitempty"`

	// Plays is the play count. Nil when the collaborator has no data.
	Plays *int64 `json:"plays,omitempty"`

	// Likes is the like count. Nil when the collaborator has no data.
	Likes *int64 `json:"likes,omitempty"`

	// Location is a free-text location tag. Defaults to "global".
	Location string `json:"location,omitempty"`

	// Type is the content type tag (song, beat, mix). Defaults to "song".
	Type string `json:"type,omitempty"`

	// CreatedAt is the creation timestamp in RFC 3339. Missing or
	// unparseable values fall back to ingestion time.
	CreatedAt string `json:"createdAt,omitempty"`
}

// InteractionRecord is the wire form of a user-item interaction event.
type InteractionRecord struct {
	// UserID identifies the interacting user.
	UserID string `json:"userId"`

	// TrackID identifies the item interacted with.
	TrackID string `json:"trackId"`

	// Type is the interaction kind: play, like, skip, or anything else.
	Type string `json:"type"`

	// Timestamp is the event time in RFC 3339. Missing or unparseable
	// values fall back to ingestion time.
	Timestamp string `json:"timestamp,omitempty"`
}

// Item is the resolved, immutable catalog entry used for feature
// construction and scoring. Defaults from the schema are already applied.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	CreatorID string    `json:"creatorId,omitempty"`
	Plays     int64     `json:"plays"`
	Likes     int64     `json:"likes"`
	Location  string    `json:"location"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Interaction weights per kind. Unknown kinds (including plain plays)
// carry neutral weight.
const (
	weightLike    = 2.0
	weightSkip    = 0.1
	weightDefault = 1.0
)

// InteractionWeight maps an interaction kind to its preference weight.
func InteractionWeight(kind string) float64 {
	switch kind {
	case "like":
		return weightLike
	case "skip":
		return weightSkip
	default:
		return weightDefault
	}
}

// InteractionEvent is one applied interaction in a user's history.
type InteractionEvent struct {
	ItemID    string    `json:"itemId"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Weight    float64   `json:"weight"`
}

// UserProfile holds a user's accumulated preference state. Weighted counts
// only grow; they are never negative.
type UserProfile struct {
	// Genres maps genre label to accumulated interaction weight.
	Genres map[string]float64 `json:"genres"`

	// Creators maps creator ID to accumulated interaction weight.
	Creators map[string]float64 `json:"creators"`

	// Locations maps location tag to accumulated interaction weight.
	Locations map[string]float64 `json:"locations"`

	// History is the most recent applied interactions, capped at the
	// configured history limit.
	History []InteractionEvent `json:"history"`

	// Seen is the full set of item IDs the user has interacted with.
	// Unlike History it is never capped, so collaborative scoring can
	// always exclude previously seen items.
	Seen map[string]bool `json:"seen"`

	// UpdatedAt is when the profile last changed.
	UpdatedAt time.Time `json:"updatedAt"`
}

// newUserProfile creates an empty profile.
func newUserProfile() *UserProfile {
	return &UserProfile{
		Genres:    make(map[string]float64),
		Creators:  make(map[string]float64),
		Locations: make(map[string]float64),
		Seen:      make(map[string]bool),
	}
}

// Clone returns a deep copy safe to read without holding the engine lock.
func (p *UserProfile) Clone() *UserProfile {
	c := &UserProfile{
		Genres:    make(map[string]float64, len(p.Genres)),
		Creators:  make(map[string]float64, len(p.Creators)),
		Locations: make(map[string]float64, len(p.Locations)),
		History:   make([]InteractionEvent, len(p.History)),
		Seen:      make(map[string]bool, len(p.Seen)),
		UpdatedAt: p.UpdatedAt,
	}
	for k, v := range p.Genres {
		c.Genres[k] = v
	}
	for k, v := range p.Creators {
		c.Creators[k] = v
	}
	for k, v := range p.Locations {
		c.Locations[k] = v
	}
	copy(c.History, p.History)
	for k := range p.Seen {
		c.Seen[k] = true
	}
	return c
}

// Model is the trained state the scoring strategies consult: the metadata
// table in load order, the reduced embedding, cluster labels, and the
// pairwise cosine-similarity matrix over the embedding.
type Model struct {
	// Items is the metadata table. Row order matches the feature matrix
	// and the similarity matrix; strategies break score ties by this order.
	Items []Item

	// Index maps item ID to row position in Items.
	Index map[string]int

	// MaxPlays is the largest play count in the loaded set.
	MaxPlays int64

	// HasPlays reports whether any loaded record carried play-count data.
	HasPlays bool

	// Reduced is the lower-rank embedding, one row per item.
	Reduced [][]float64

	// Clusters holds one cluster label per item.
	Clusters []int

	// Similarity is the full pairwise cosine-similarity matrix over
	// Reduced. Nil until Train has run.
	Similarity [][]float64

	// Trained reports whether Train has completed for the current set.
	Trained bool
}

// ItemByID returns the item with the given ID, if loaded.
func (m *Model) ItemByID(id string) (Item, bool) {
	i, ok := m.Index[id]
	if !ok {
		return Item{}, false
	}
	return m.Items[i], true
}

// Query carries the parameters of one strategy invocation.
type Query struct {
	// UserID is the requesting user (collaborative only).
	UserID string

	// SeedIDs are seed item IDs (content-based only).
	SeedIDs []string

	// Location is the requested location tag (location-based only).
	Location string

	// Count is the requested result length.
	Count int
}

// View is a read-only snapshot handed to strategies. Profile is a deep
// copy (nil for unknown users), so strategies never touch shared state.
type View struct {
	Model   *Model
	Profile *UserProfile
	Now     time.Time
	Seed    int64
}

// Strategy is one independent scoring method. Rank returns item IDs most
// relevant first; ties are broken by metadata table order (stable sort).
// Strategies never return a seed or already-seen item and never fail:
// unknown entities degrade to shorter or empty results.
type Strategy interface {
	// Name returns the strategy identifier used in cache keys and fusion
	// weights ("collaborative", "content", "location", "popularity").
	Name() string

	// Rank scores the loaded items for the query.
	Rank(ctx context.Context, view *View, q Query) []string
}

// RecordSource supplies raw records for the initial lazy load. It is
// typically implemented by the composing process's storage layer.
type RecordSource interface {
	// Items returns the full current item catalog.
	Items(ctx context.Context) ([]ItemRecord, error)

	// Interactions returns the interaction log.
	Interactions(ctx context.Context) ([]InteractionRecord, error)
}

// Stats is the engine's serving statistics.
type Stats struct {
	// RequestsServed counts strategy lookups, cached or not.
	RequestsServed int64 `json:"requests_served"`

	// CacheHits counts lookups answered from the result cache.
	CacheHits int64 `json:"cache_hits"`

	// AvgResponseTimeSeconds is the running mean lookup latency.
	AvgResponseTimeSeconds float64 `json:"avg_response_time_seconds"`
}
