// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

// Package store provides record sources for the recommendation engine.
// The persistent catalog lives outside this service; the file source
// stands in for it when running the server against exported JSON data.
package store

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tunegraph/tunegraph/internal/recommend"
)

// FileSource implements recommend.RecordSource over two JSON files: an
// item catalog (array of item records) and an optional interaction log
// (array of interaction records).
type FileSource struct {
	itemsPath        string
	interactionsPath string
	logger           zerolog.Logger
}

// NewFileSource creates a file-backed record source. interactionsPath
// may be empty when no interaction log exists.
func NewFileSource(itemsPath, interactionsPath string, logger zerolog.Logger) *FileSource {
	return &FileSource{
		itemsPath:        itemsPath,
		interactionsPath: interactionsPath,
		logger:           logger.With().Str("component", "store").Logger(),
	}
}

// Items reads and decodes the item catalog.
func (s *FileSource) Items(ctx context.Context) ([]recommend.ItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	data, err := os.ReadFile(s.itemsPath)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}
	var items []recommend.ItemRecord
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode items file %s: %w", s.itemsPath, err)
	}
	s.logger.Debug().Int("count", len(items)).Str("path", s.itemsPath).Msg("items loaded")
	return items, nil
}

// Interactions reads and decodes the interaction log. A missing or
// unconfigured log yields an empty slice, not an error.
func (s *FileSource) Interactions(ctx context.Context) ([]recommend.InteractionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}
	if s.interactionsPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.interactionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn().Str("path", s.interactionsPath).Msg("interaction log missing, starting without profiles")
			return nil, nil
		}
		return nil, fmt.Errorf("read interactions file: %w", err)
	}
	var interactions []recommend.InteractionRecord
	if err := json.Unmarshal(data, &interactions); err != nil {
		return nil, fmt.Errorf("decode interactions file %s: %w", s.interactionsPath, err)
	}
	s.logger.Debug().Int("count", len(interactions)).Str("path", s.interactionsPath).Msg("interactions loaded")
	return interactions, nil
}
