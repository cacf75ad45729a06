// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLoader(chunkSize int) *loader {
	return &loader{
		builder:   NewFeatureBuilder(testFeatureConfig()),
		model:     newModel(),
		profiles:  NewProfileStore(100),
		chunkSize: chunkSize,
		logger:    zerolog.Nop(),
	}
}

func TestLoader_ResolveItem(t *testing.T) {
	t.Run("defaults applied to missing fields", func(t *testing.T) {
		l := newTestLoader(10)
		item := l.resolveItem(ItemRecord{ID: "a"})

		if item.Location != "global" {
			t.Errorf("Location = %q, want global", item.Location)
		}
		if item.Type != "song" {
			t.Errorf("Type = %q, want song", item.Type)
		}
		if item.Plays != 0 || item.Likes != 0 {
			t.Errorf("counts = %d/%d, want 0/0", item.Plays, item.Likes)
		}
		if item.CreatedAt.IsZero() {
			t.Error("CreatedAt fell through without fallback")
		}
		// Absent play counts must not mark the dataset as having data.
		if l.model.HasPlays {
			t.Error("HasPlays = true with nil play count")
		}
	})

	t.Run("present play count tracked in model", func(t *testing.T) {
		l := newTestLoader(10)
		plays := int64(750)
		item := l.resolveItem(ItemRecord{ID: "a", Plays: &plays})

		if item.Plays != 750 {
			t.Errorf("Plays = %d, want 750", item.Plays)
		}
		if !l.model.HasPlays || l.model.MaxPlays != 750 {
			t.Errorf("model HasPlays/MaxPlays = %v/%d, want true/750", l.model.HasPlays, l.model.MaxPlays)
		}
	})

	t.Run("explicit zero play count counts as data", func(t *testing.T) {
		l := newTestLoader(10)
		zero := int64(0)
		l.resolveItem(ItemRecord{ID: "a", Plays: &zero})
		if !l.model.HasPlays {
			t.Error("HasPlays = false for explicit zero count")
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	fallback := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"valid RFC 3339", "2025-03-01T12:30:00Z", time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)},
		{"empty falls back", "", fallback},
		{"malformed falls back", "last tuesday", fallback},
		{"date only falls back", "2025-03-01", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.raw, fallback, zerolog.Nop(), "test")
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLoader_IngestItems(t *testing.T) {
	t.Run("chunked ingestion keeps matrix aligned with catalog", func(t *testing.T) {
		l := newTestLoader(2)
		recs := []ItemRecord{
			{ID: "a", Genre: "pop"},
			{ID: "b", Genre: "rock"},
			{ID: "c", Genre: "jazz"},
			{ID: "d", Genre: "pop"},
			{ID: "e", Genre: "blues"},
		}

		added, err := l.ingestItems(context.Background(), recs)
		if err != nil {
			t.Fatalf("ingestItems: %v", err)
		}
		if added != 5 {
			t.Errorf("added = %d, want 5", added)
		}
		if len(l.matrix) != len(l.model.Items) {
			t.Errorf("matrix rows = %d, catalog = %d, want equal", len(l.matrix), len(l.model.Items))
		}
		for id, idx := range l.model.Index {
			if l.model.Items[idx].ID != id {
				t.Errorf("Index[%s] = %d points at %s", id, idx, l.model.Items[idx].ID)
			}
		}
	})

	t.Run("duplicates and empty ids skipped", func(t *testing.T) {
		l := newTestLoader(10)
		recs := []ItemRecord{
			{ID: "a", Genre: "pop"},
			{ID: "a", Genre: "rock"},
			{ID: ""},
			{ID: "b", Genre: "jazz"},
		}

		added, err := l.ingestItems(context.Background(), recs)
		if err != nil {
			t.Fatalf("ingestItems: %v", err)
		}
		if added != 2 {
			t.Errorf("added = %d, want 2", added)
		}
		// The first occurrence wins.
		item, _ := l.model.ItemByID("a")
		if item.Genre != "pop" {
			t.Errorf("duplicate overwrote original: genre = %q", item.Genre)
		}
	})

	t.Run("cancelled context stops ingestion", func(t *testing.T) {
		l := newTestLoader(1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := l.ingestItems(ctx, []ItemRecord{{ID: "a"}})
		if err == nil {
			t.Error("ingestItems with cancelled context succeeded")
		}
	})
}

func TestLoader_IngestInteractions(t *testing.T) {
	l := newTestLoader(10)
	if _, err := l.ingestItems(context.Background(), []ItemRecord{{ID: "a", Genre: "pop"}}); err != nil {
		t.Fatalf("ingestItems: %v", err)
	}

	recs := []InteractionRecord{
		{UserID: "u1", TrackID: "a", Type: "like", Timestamp: "2025-03-01T00:00:00Z"},
		{UserID: "u1", TrackID: "ghost", Type: "play"},
		{UserID: "", TrackID: "a", Type: "play"},
		{UserID: "u2", TrackID: "", Type: "play"},
	}

	applied, err := l.ingestInteractions(context.Background(), recs)
	if err != nil {
		t.Fatalf("ingestInteractions: %v", err)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}

	prof := l.profiles.Get("u1")
	if prof == nil {
		t.Fatal("profile for u1 missing")
	}
	if prof.Genres["pop"] != 2.0 {
		t.Errorf("Genres[pop] = %f, want 2.0 for a like", prof.Genres["pop"])
	}
	if !prof.Seen["a"] {
		t.Error("Seen[a] = false")
	}
}
