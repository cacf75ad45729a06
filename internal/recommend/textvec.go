// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// TextVectorizer produces fixed-width TF-IDF encodings of short free-text
// labels (genre, location). The vocabulary is fitted once, on the first
// batch seen, and reused for every later batch so feature columns stay
// aligned across incremental loads. Tokens outside the fitted vocabulary
// encode to zero; a text with no known tokens encodes to the neutral
// all-zero vector.
//
// Fields are exported for gob snapshot serialization.
type TextVectorizer struct {
	// Size is the fixed output width.
	Size int

	// Vocab maps token to output column.
	Vocab map[string]int

	// IDF holds the inverse document frequency per column.
	IDF []float64

	// Fitted reports whether the vocabulary has been built.
	Fitted bool
}

// NewTextVectorizer creates a vectorizer with the given output width.
func NewTextVectorizer(size int) *TextVectorizer {
	return &TextVectorizer{Size: size}
}

// tokenize lowercases and splits on any non-letter, non-digit rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Fit builds the vocabulary from the given texts: the Size most
// document-frequent tokens, ties broken lexicographically for
// reproducibility. Fitting twice is a no-op.
func (v *TextVectorizer) Fit(texts []string) {
	if v.Fitted {
		return
	}

	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	type tokenFreq struct {
		token string
		count int
	}
	freqs := make([]tokenFreq, 0, len(df))
	for tok, count := range df {
		freqs = append(freqs, tokenFreq{tok, count})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].count != freqs[j].count {
			return freqs[i].count > freqs[j].count
		}
		return freqs[i].token < freqs[j].token
	})
	if len(freqs) > v.Size {
		freqs = freqs[:v.Size]
	}

	docs := float64(len(texts))
	v.Vocab = make(map[string]int, len(freqs))
	v.IDF = make([]float64, v.Size)
	for col, tf := range freqs {
		v.Vocab[tf.token] = col
		// Smoothed IDF keeps weights finite for tokens in every document.
		v.IDF[col] = math.Log((1+docs)/(1+float64(tf.count))) + 1
	}
	v.Fitted = true
}

// Transform encodes one text as an L2-normalized TF-IDF vector of width
// Size. Must be called after Fit.
func (v *TextVectorizer) Transform(text string) []float64 {
	vec := make([]float64, v.Size)
	if !v.Fitted || text == "" {
		return vec
	}

	for _, tok := range tokenize(text) {
		if col, ok := v.Vocab[tok]; ok {
			vec[col] += v.IDF[col]
		}
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
