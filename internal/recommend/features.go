// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"math"
	"sort"
)

// FeatureBuilder turns resolved items into fixed-width numeric feature
// vectors. Vector layout, in column order:
//
//	[0]                normalized play count (0-1, chunk-relative)
//	[1]                normalized like count (0-1, chunk-relative)
//	[2]                creator popularity (creator item share, chunk-relative)
//	[3 : 3+G]          genre TF-IDF encoding (G = genre vector size)
//	[3+G : 3+G+L]      location TF-IDF encoding (L = location vector size)
//	[3+G+L : width]    type one-hot, one column per type in the fitted set
//
// Vocabularies (genre, location, type) are fitted on the first chunk ever
// processed and reused afterwards, so columns stay aligned across chunks
// and across incremental loads. Missing optional fields degrade to neutral
// values (zero) rather than failing; a zero normalization max yields 0.
//
// Fields are exported for gob snapshot serialization.
type FeatureBuilder struct {
	GenreVec    *TextVectorizer
	LocationVec *TextVectorizer

	// TypeColumns maps a type tag to its one-hot column offset within the
	// type block. Types not in the fitted set encode to all zeros.
	TypeColumns map[string]int

	Fitted bool
}

// NewFeatureBuilder creates a builder with the configured encoding widths.
func NewFeatureBuilder(cfg FeatureConfig) *FeatureBuilder {
	return &FeatureBuilder{
		GenreVec:    NewTextVectorizer(cfg.GenreVectorSize),
		LocationVec: NewTextVectorizer(cfg.LocationVectorSize),
	}
}

// Width returns the feature vector width. Valid after the first chunk.
func (b *FeatureBuilder) Width() int {
	return 3 + b.GenreVec.Size + b.LocationVec.Size + len(b.TypeColumns)
}

// fit builds all vocabularies from the first chunk.
func (b *FeatureBuilder) fit(items []Item) {
	genres := make([]string, len(items))
	locations := make([]string, len(items))
	typeSet := make(map[string]struct{})
	for i := range items {
		genres[i] = items[i].Genre
		locations[i] = items[i].Location
		typeSet[items[i].Type] = struct{}{}
	}
	b.GenreVec.Fit(genres)
	b.LocationVec.Fit(locations)

	// Deterministic column order for the one-hot block.
	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	b.TypeColumns = make(map[string]int, len(types))
	for i, t := range types {
		b.TypeColumns[t] = i
	}

	b.Fitted = true
}

// BuildChunk produces one feature vector per item, fitting vocabularies if
// this is the first chunk. Play/like normalization and creator popularity
// are relative to the observed chunk.
func (b *FeatureBuilder) BuildChunk(items []Item) [][]float64 {
	if len(items) == 0 {
		return nil
	}
	if !b.Fitted {
		b.fit(items)
	}

	var maxPlays, maxLikes int64
	creatorCounts := make(map[string]int)
	maxCreator := 0
	for i := range items {
		if items[i].Plays > maxPlays {
			maxPlays = items[i].Plays
		}
		if items[i].Likes > maxLikes {
			maxLikes = items[i].Likes
		}
		if items[i].CreatorID != "" {
			creatorCounts[items[i].CreatorID]++
			if creatorCounts[items[i].CreatorID] > maxCreator {
				maxCreator = creatorCounts[items[i].CreatorID]
			}
		}
	}

	width := b.Width()
	genreOff := 3
	locOff := genreOff + b.GenreVec.Size
	typeOff := locOff + b.LocationVec.Size

	matrix := make([][]float64, len(items))
	for i := range items {
		row := make([]float64, width)
		if maxPlays > 0 {
			row[0] = float64(items[i].Plays) / float64(maxPlays)
		}
		if maxLikes > 0 {
			row[1] = float64(items[i].Likes) / float64(maxLikes)
		}
		if maxCreator > 0 && items[i].CreatorID != "" {
			row[2] = float64(creatorCounts[items[i].CreatorID]) / float64(maxCreator)
		}
		copy(row[genreOff:locOff], b.GenreVec.Transform(items[i].Genre))
		copy(row[locOff:typeOff], b.LocationVec.Transform(items[i].Location))
		if col, ok := b.TypeColumns[items[i].Type]; ok {
			row[typeOff+col] = 1
		}
		matrix[i] = row
	}
	return matrix
}

// Scaler standardizes feature columns to zero mean and unit variance.
// It is fitted once per full training pass over the concatenated matrix.
//
// Fields are exported for gob snapshot serialization.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitTransform fits column statistics and returns the scaled copy of the
// matrix. Constant columns (zero variance) are centered but not divided.
func (s *Scaler) FitTransform(matrix [][]float64) [][]float64 {
	if len(matrix) == 0 {
		return nil
	}
	width := len(matrix[0])
	n := float64(len(matrix))

	s.Mean = make([]float64, width)
	s.Std = make([]float64, width)
	for _, row := range matrix {
		for j, x := range row {
			s.Mean[j] += x
		}
	}
	for j := range s.Mean {
		s.Mean[j] /= n
	}
	for _, row := range matrix {
		for j, x := range row {
			d := x - s.Mean[j]
			s.Std[j] += d * d
		}
	}
	for j := range s.Std {
		s.Std[j] = math.Sqrt(s.Std[j] / n)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}

	scaled := make([][]float64, len(matrix))
	for i, row := range matrix {
		out := make([]float64, width)
		for j, x := range row {
			out[j] = (x - s.Mean[j]) / s.Std[j]
		}
		scaled[i] = out
	}
	return scaled
}
