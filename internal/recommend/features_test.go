// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"math"
	"testing"
	"time"
)

func testFeatureConfig() FeatureConfig {
	return FeatureConfig{
		GenreVectorSize:    8,
		LocationVectorSize: 4,
	}
}

func testItem(id, genre, creator, location, typ string, plays, likes int64) Item {
	return Item{
		ID:        id,
		Title:     id,
		Genre:     genre,
		CreatorID: creator,
		Plays:     plays,
		Likes:     likes,
		Location:  location,
		Type:      typ,
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFeatureBuilder_BuildChunk(t *testing.T) {
	t.Run("vector layout and normalization", func(t *testing.T) {
		b := NewFeatureBuilder(testFeatureConfig())
		items := []Item{
			testItem("a", "pop", "x", "us", "song", 1000, 50),
			testItem("b", "rock", "y", "uk", "song", 500, 100),
		}

		matrix := b.BuildChunk(items)
		if len(matrix) != 2 {
			t.Fatalf("rows = %d, want 2", len(matrix))
		}
		wantWidth := 3 + 8 + 4 + 1 // one fitted type
		if b.Width() != wantWidth {
			t.Fatalf("Width() = %d, want %d", b.Width(), wantWidth)
		}
		if len(matrix[0]) != wantWidth {
			t.Fatalf("row width = %d, want %d", len(matrix[0]), wantWidth)
		}

		// Plays normalized to the chunk max.
		if matrix[0][0] != 1.0 {
			t.Errorf("row a plays = %f, want 1.0", matrix[0][0])
		}
		if matrix[1][0] != 0.5 {
			t.Errorf("row b plays = %f, want 0.5", matrix[1][0])
		}
		// Likes normalized independently.
		if matrix[0][1] != 0.5 {
			t.Errorf("row a likes = %f, want 0.5", matrix[0][1])
		}
		if matrix[1][1] != 1.0 {
			t.Errorf("row b likes = %f, want 1.0", matrix[1][1])
		}
		// Both creators own one item each.
		if matrix[0][2] != 1.0 || matrix[1][2] != 1.0 {
			t.Errorf("creator pop = %f, %f, want 1.0, 1.0", matrix[0][2], matrix[1][2])
		}
		// Single type gets its one-hot column set.
		if matrix[0][wantWidth-1] != 1 {
			t.Errorf("type column = %f, want 1", matrix[0][wantWidth-1])
		}
	})

	t.Run("zero max yields zero columns", func(t *testing.T) {
		b := NewFeatureBuilder(testFeatureConfig())
		items := []Item{
			testItem("a", "pop", "", "us", "song", 0, 0),
		}

		matrix := b.BuildChunk(items)
		if matrix[0][0] != 0 || matrix[0][1] != 0 || matrix[0][2] != 0 {
			t.Errorf("numeric columns = %v, want all zero", matrix[0][:3])
		}
	})

	t.Run("vocabulary fitted once keeps columns aligned", func(t *testing.T) {
		b := NewFeatureBuilder(testFeatureConfig())
		first := []Item{
			testItem("a", "pop", "x", "us", "song", 10, 1),
			testItem("b", "rock", "y", "uk", "song", 20, 2),
		}
		b.BuildChunk(first)
		width := b.Width()

		// Second chunk introduces a genre and a type outside the fitted set.
		second := []Item{
			testItem("c", "jazz", "z", "us", "podcast", 30, 3),
			testItem("d", "pop", "x", "uk", "song", 15, 1),
		}
		matrix := b.BuildChunk(second)

		if b.Width() != width {
			t.Fatalf("Width changed across chunks: %d, want %d", b.Width(), width)
		}
		if len(matrix[0]) != width {
			t.Fatalf("row width = %d, want %d", len(matrix[0]), width)
		}
		// Unknown genre encodes to zero in the genre block.
		for j := 3; j < 3+8; j++ {
			if matrix[0][j] != 0 {
				t.Errorf("jazz genre column %d = %f, want 0", j, matrix[0][j])
			}
		}
		// Unknown type leaves the one-hot block empty.
		for j := 3 + 8 + 4; j < width; j++ {
			if matrix[0][j] != 0 {
				t.Errorf("podcast type column %d = %f, want 0", j, matrix[0][j])
			}
		}
		// Known genre still lands in its fitted column.
		var popNonZero bool
		for j := 3; j < 3+8; j++ {
			if matrix[1][j] != 0 {
				popNonZero = true
			}
		}
		if !popNonZero {
			t.Error("known genre pop encoded to all zeros in second chunk")
		}
	})

	t.Run("empty chunk", func(t *testing.T) {
		b := NewFeatureBuilder(testFeatureConfig())
		if got := b.BuildChunk(nil); got != nil {
			t.Errorf("BuildChunk(nil) = %v, want nil", got)
		}
	})
}

func TestScaler_FitTransform(t *testing.T) {
	t.Run("zero mean unit variance", func(t *testing.T) {
		matrix := [][]float64{
			{1, 10},
			{3, 20},
			{5, 30},
		}
		var s Scaler
		scaled := s.FitTransform(matrix)

		for j := 0; j < 2; j++ {
			var mean, variance float64
			for i := range scaled {
				mean += scaled[i][j]
			}
			mean /= float64(len(scaled))
			for i := range scaled {
				d := scaled[i][j] - mean
				variance += d * d
			}
			variance /= float64(len(scaled))

			if math.Abs(mean) > 1e-9 {
				t.Errorf("column %d mean = %f, want 0", j, mean)
			}
			if math.Abs(variance-1) > 1e-9 {
				t.Errorf("column %d variance = %f, want 1", j, variance)
			}
		}
	})

	t.Run("constant column is centered not divided", func(t *testing.T) {
		matrix := [][]float64{
			{7, 1},
			{7, 2},
		}
		var s Scaler
		scaled := s.FitTransform(matrix)

		if s.Std[0] != 1 {
			t.Errorf("Std[0] = %f, want 1", s.Std[0])
		}
		if scaled[0][0] != 0 || scaled[1][0] != 0 {
			t.Errorf("constant column = %f, %f, want 0, 0", scaled[0][0], scaled[1][0])
		}
	})

	t.Run("input matrix is not mutated", func(t *testing.T) {
		matrix := [][]float64{{1, 2}, {3, 4}}
		var s Scaler
		s.FitTransform(matrix)

		if matrix[0][0] != 1 || matrix[1][1] != 4 {
			t.Errorf("input mutated: %v", matrix)
		}
	})

	t.Run("empty matrix", func(t *testing.T) {
		var s Scaler
		if got := s.FitTransform(nil); got != nil {
			t.Errorf("FitTransform(nil) = %v, want nil", got)
		}
	})
}
