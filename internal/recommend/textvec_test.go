// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			text: "Indie-Rock / Shoegaze",
			want: []string{"indie", "rock", "shoegaze"},
		},
		{
			name: "keeps digits",
			text: "Top40",
			want: []string{"top40"},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "only separators",
			text: " -- / ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTextVectorizer_Fit(t *testing.T) {
	t.Run("keeps most frequent tokens with lexicographic tie-break", func(t *testing.T) {
		v := NewTextVectorizer(2)
		v.Fit([]string{"pop rock", "pop jazz", "rock"})

		// pop and rock both appear in two documents, jazz in one.
		if _, ok := v.Vocab["pop"]; !ok {
			t.Error("Vocab missing token pop")
		}
		if _, ok := v.Vocab["rock"]; !ok {
			t.Error("Vocab missing token rock")
		}
		if _, ok := v.Vocab["jazz"]; ok {
			t.Error("Vocab kept token jazz beyond size limit")
		}
		// Ties broken lexicographically: pop before rock.
		if v.Vocab["pop"] != 0 || v.Vocab["rock"] != 1 {
			t.Errorf("Vocab columns = %v, want pop=0 rock=1", v.Vocab)
		}
	})

	t.Run("counts document frequency not term frequency", func(t *testing.T) {
		v := NewTextVectorizer(1)
		// rock appears three times but only in one document.
		v.Fit([]string{"rock rock rock", "pop", "pop"})

		if _, ok := v.Vocab["pop"]; !ok {
			t.Errorf("Vocab = %v, want pop kept over repeated rock", v.Vocab)
		}
	})

	t.Run("second fit is a no-op", func(t *testing.T) {
		v := NewTextVectorizer(4)
		v.Fit([]string{"pop", "rock"})
		before := len(v.Vocab)

		v.Fit([]string{"jazz", "metal", "blues"})
		if len(v.Vocab) != before {
			t.Errorf("Vocab size changed after refit: %d, want %d", len(v.Vocab), before)
		}
		if _, ok := v.Vocab["jazz"]; ok {
			t.Error("refit added new token jazz")
		}
	})

	t.Run("idf is smoothed and finite", func(t *testing.T) {
		v := NewTextVectorizer(1)
		// Token present in every document still gets a positive weight.
		v.Fit([]string{"pop", "pop", "pop"})

		col := v.Vocab["pop"]
		want := math.Log(4.0/4.0) + 1
		if math.Abs(v.IDF[col]-want) > 1e-12 {
			t.Errorf("IDF = %f, want %f", v.IDF[col], want)
		}
	})
}

func TestTextVectorizer_Transform(t *testing.T) {
	v := NewTextVectorizer(4)
	v.Fit([]string{"pop rock", "pop", "jazz"})

	t.Run("output is L2 normalized", func(t *testing.T) {
		vec := v.Transform("pop rock")
		var norm float64
		for _, x := range vec {
			norm += x * x
		}
		if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
			t.Errorf("norm = %f, want 1", math.Sqrt(norm))
		}
	})

	t.Run("unknown tokens encode to zero", func(t *testing.T) {
		vec := v.Transform("metal blues")
		for i, x := range vec {
			if x != 0 {
				t.Errorf("vec[%d] = %f, want 0", i, x)
			}
		}
	})

	t.Run("fixed output width", func(t *testing.T) {
		if got := len(v.Transform("pop")); got != 4 {
			t.Errorf("len = %d, want 4", got)
		}
		if got := len(v.Transform("")); got != 4 {
			t.Errorf("len for empty text = %d, want 4", got)
		}
	})

	t.Run("unfitted vectorizer returns zero vector", func(t *testing.T) {
		raw := NewTextVectorizer(3)
		vec := raw.Transform("pop")
		if len(vec) != 3 {
			t.Fatalf("len = %d, want 3", len(vec))
		}
		for i, x := range vec {
			if x != 0 {
				t.Errorf("vec[%d] = %f, want 0", i, x)
			}
		}
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		a := v.Transform("pop rock")
		b := v.Transform("pop rock")
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("vec[%d] differs between calls: %f vs %f", i, a[i], b[i])
			}
		}
	})
}
