// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultLocation = "global"
	defaultType     = "song"
)

// loader ingests raw catalog and interaction records in fixed-size
// chunks, resolving defaults and feeding the feature builder and profile
// store. It mutates engine-owned state and must only run under the
// engine mutex.
type loader struct {
	builder   *FeatureBuilder
	model     *Model
	matrix    [][]float64
	profiles  *ProfileStore
	chunkSize int
	logger    zerolog.Logger
}

// ingestItems resolves and appends item records. Records whose ID is
// already present are skipped with a warning. Returns the number of
// items actually added.
func (l *loader) ingestItems(ctx context.Context, recs []ItemRecord) (int, error) {
	added := 0
	for start := 0; start < len(recs); start += l.chunkSize {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		end := start + l.chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		chunk := make([]Item, 0, end-start)
		for _, rec := range recs[start:end] {
			if rec.ID == "" {
				l.logger.Warn().Msg("skipping item record with empty id")
				continue
			}
			if _, ok := l.model.Index[rec.ID]; ok {
				l.logger.Warn().Str("item_id", rec.ID).Msg("skipping duplicate item id")
				continue
			}
			item := l.resolveItem(rec)
			l.model.Index[item.ID] = len(l.model.Items)
			l.model.Items = append(l.model.Items, item)
			chunk = append(chunk, item)
		}
		if len(chunk) == 0 {
			continue
		}

		// Vocabularies are fitted on the first chunk ever seen so that
		// feature columns stay aligned across later batches.
		l.builder.fit(chunk)
		l.matrix = append(l.matrix, l.builder.BuildChunk(chunk)...)
		added += len(chunk)
	}
	return added, nil
}

// ingestInteractions applies interaction records to user profiles.
// Interactions referencing unknown items are skipped with a warning.
func (l *loader) ingestInteractions(ctx context.Context, recs []InteractionRecord) (int, error) {
	applied := 0
	for start := 0; start < len(recs); start += l.chunkSize {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		end := start + l.chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		for _, rec := range recs[start:end] {
			if rec.UserID == "" || rec.TrackID == "" {
				l.logger.Warn().
					Str("user_id", rec.UserID).
					Str("track_id", rec.TrackID).
					Msg("skipping interaction with missing identifiers")
				continue
			}
			idx, ok := l.model.Index[rec.TrackID]
			if !ok {
				l.logger.Warn().
					Str("user_id", rec.UserID).
					Str("track_id", rec.TrackID).
					Msg("skipping interaction for unknown item")
				continue
			}
			ts := parseTimestamp(rec.Timestamp, time.Now().UTC(), l.logger, "interaction")
			l.profiles.Apply(rec.UserID, l.model.Items[idx], rec.Type, ts)
			applied++
		}
	}
	return applied, nil
}

// resolveItem fills defaults for missing catalog fields. Plays and likes
// default to zero; absent play counts are tracked so popularity scoring
// can fall back to sampling when no item has a real count.
func (l *loader) resolveItem(rec ItemRecord) Item {
	item := Item{
		ID:        rec.ID,
		Title:     rec.Title,
		Genre:     rec.Genre,
		CreatorID: rec.CreatorID,
		Location:  rec.Location,
		Type:      rec.Type,
	}
	if item.Location == "" {
		item.Location = defaultLocation
	}
	if item.Type == "" {
		item.Type = defaultType
	}
	if rec.Plays != nil {
		item.Plays = *rec.Plays
		l.model.HasPlays = true
		if item.Plays > l.model.MaxPlays {
			l.model.MaxPlays = item.Plays
		}
	}
	if rec.Likes != nil {
		item.Likes = *rec.Likes
	}
	item.CreatedAt = parseTimestamp(rec.CreatedAt, time.Now().UTC(), l.logger, "item "+rec.ID)
	return item
}

// parseTimestamp parses an RFC 3339 timestamp, falling back to the given
// time when the field is empty or malformed.
func parseTimestamp(raw string, fallback time.Time, logger zerolog.Logger, context string) time.Time {
	if raw == "" {
		return fallback
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn().Str("timestamp", raw).Str("record", context).Msg("unparseable timestamp, using current time")
		return fallback
	}
	return ts
}
