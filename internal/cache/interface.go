// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

// Package cache provides the bounded result cache used by the
// recommendation engine. Values are ordered item-identifier lists keyed
// by strategy name plus request parameters.
package cache

// ResultCache is the interface the engine caches ranked lists behind.
type ResultCache interface {
	// Get retrieves a ranked list. Returns the list and true on a hit.
	Get(key string) ([]string, bool)

	// Set stores a ranked list, evicting as needed to stay within
	// capacity.
	Set(key string, ids []string)

	// Clear removes all entries.
	Clear()

	// Len returns the number of cached entries.
	Len() int

	// GetStats returns hit/miss/eviction counters.
	GetStats() Stats

	// Snapshot returns a detached copy of the entries and their
	// insertion order for persistence.
	Snapshot() (map[string][]string, []string)

	// Restore replaces the contents with a previously snapshotted
	// state, trimming to capacity.
	Restore(items map[string][]string, order []string)
}

// Stats holds cache counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}
