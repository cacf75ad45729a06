// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

package recommend

import (
	"math"
	"math/rand"
)

// Reducer fits a truncated low-rank embedding of the scaled feature
// matrix via randomized subspace projection, assigns cluster labels with
// mini-batch k-means, and computes the full pairwise cosine-similarity
// matrix over the embedding. It is re-fitted in full on every training
// pass; there are no incremental updates.
type Reducer struct {
	cfg ReduceConfig
}

// NewReducer creates a reducer with the given parameters.
func NewReducer(cfg ReduceConfig) *Reducer {
	return &Reducer{cfg: cfg}
}

// ReduceResult holds the artifacts of one training pass.
type ReduceResult struct {
	// Reduced is the rank-capped embedding, one row per input row.
	Reduced [][]float64

	// Clusters holds one label per input row.
	Clusters []int

	// Similarity is the pairwise cosine-similarity matrix over Reduced.
	Similarity [][]float64

	// Rank is the effective embedding rank after capping.
	Rank int
}

// Fit runs the full reduction pipeline. The target rank is capped by the
// matrix dimensions rather than failing when fewer items than the target
// rank exist; the cluster count is capped by the row count.
func (r *Reducer) Fit(matrix [][]float64, seed int64) *ReduceResult {
	rows := len(matrix)
	if rows == 0 {
		return &ReduceResult{}
	}
	cols := len(matrix[0])

	rank := r.cfg.Rank
	if rank > cols {
		rank = cols
	}
	if rank > rows {
		rank = rows
	}
	if rank < 1 {
		rank = 1
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic embedding, not crypto

	// Randomized range finder: project onto an orthonormalized random
	// basis refined by one subspace iteration. Approximates the dominant
	// rank-k subspace of the feature matrix.
	basis := gaussianMatrix(rng, cols, rank)
	orthonormalize(basis)
	basis = subspaceIterate(matrix, basis)
	reduced := matMul(matrix, basis)

	clusters := r.miniBatchKMeans(reduced, seed)
	similarity := cosineSimilarityMatrix(reduced)

	return &ReduceResult{
		Reduced:    reduced,
		Clusters:   clusters,
		Similarity: similarity,
		Rank:       rank,
	}
}

// gaussianMatrix returns a rows x cols matrix of standard normal draws.
func gaussianMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
		for j := range m[i] {
			m[i][j] = rng.NormFloat64()
		}
	}
	return m
}

// subspaceIterate refines the basis with one power iteration:
// basis <- orth(Aᵀ A basis). Improves alignment with the dominant
// singular directions at the cost of two matrix products.
func subspaceIterate(matrix, basis [][]float64) [][]float64 {
	projected := matMul(matrix, basis)          // rows x rank
	refined := matMulTransposeA(matrix, projected) // cols x rank
	orthonormalize(refined)
	return refined
}

// matMul returns a*b for a (m x n) and b (n x k).
func matMul(a, b [][]float64) [][]float64 {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return nil
	}
	k := len(b[0])
	out := make([][]float64, m)
	for i := range out {
		row := make([]float64, k)
		for l := 0; l < n; l++ {
			x := a[i][l]
			if x == 0 {
				continue
			}
			for j := 0; j < k; j++ {
				row[j] += x * b[l][j]
			}
		}
		out[i] = row
	}
	return out
}

// matMulTransposeA returns aᵀ*b for a (m x n) and b (m x k).
func matMulTransposeA(a, b [][]float64) [][]float64 {
	m := len(a)
	if m == 0 {
		return nil
	}
	n := len(a[0])
	k := len(b[0])
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, k)
	}
	for l := 0; l < m; l++ {
		for i := 0; i < n; i++ {
			x := a[l][i]
			if x == 0 {
				continue
			}
			for j := 0; j < k; j++ {
				out[i][j] += x * b[l][j]
			}
		}
	}
	return out
}

// orthonormalize applies modified Gram-Schmidt to the columns of m in
// place. Degenerate columns are left as zero vectors.
func orthonormalize(m [][]float64) {
	if len(m) == 0 {
		return
	}
	rows := len(m)
	cols := len(m[0])

	for j := 0; j < cols; j++ {
		for p := 0; p < j; p++ {
			var dot float64
			for i := 0; i < rows; i++ {
				dot += m[i][j] * m[i][p]
			}
			for i := 0; i < rows; i++ {
				m[i][j] -= dot * m[i][p]
			}
		}
		var norm float64
		for i := 0; i < rows; i++ {
			norm += m[i][j] * m[i][j]
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			continue
		}
		for i := 0; i < rows; i++ {
			m[i][j] /= norm
		}
	}
}

// miniBatchKMeans assigns cluster labels using the mini-batch update rule
// with per-centroid learning rates. Deterministic for a fixed seed.
func (r *Reducer) miniBatchKMeans(points [][]float64, seed int64) []int {
	n := len(points)
	if n == 0 {
		return nil
	}

	k := r.cfg.Clusters
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	rng := rand.New(rand.NewSource(seed + 1)) //nolint:gosec // deterministic clustering, not crypto

	// Initialize centroids from a random permutation of the points.
	dim := len(points[0])
	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(n)[:k] {
		centroids[i] = make([]float64, dim)
		copy(centroids[i], points[idx])
	}

	batch := r.cfg.BatchSize
	if batch > n {
		batch = n
	}

	counts := make([]int, k)
	for iter := 0; iter < r.cfg.Iterations; iter++ {
		for b := 0; b < batch; b++ {
			p := points[rng.Intn(n)]
			c := nearestCentroid(centroids, p)
			counts[c]++
			eta := 1.0 / float64(counts[c])
			for j := range centroids[c] {
				centroids[c][j] += eta * (p[j] - centroids[c][j])
			}
		}
	}

	labels := make([]int, n)
	for i, p := range points {
		labels[i] = nearestCentroid(centroids, p)
	}
	return labels
}

// nearestCentroid returns the index of the closest centroid by squared
// Euclidean distance.
func nearestCentroid(centroids [][]float64, p []float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		var dist float64
		for j := range centroid {
			d := p[j] - centroid[j]
			dist += d * d
		}
		if dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best
}

// cosineSimilarityMatrix computes all pairwise cosine similarities.
func cosineSimilarityMatrix(rows [][]float64) [][]float64 {
	n := len(rows)
	norms := make([]float64, n)
	for i, row := range rows {
		var sum float64
		for _, x := range row {
			sum += x * x
		}
		norms[i] = math.Sqrt(sum)
	}

	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
		sim[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var dot float64
			for l := range rows[i] {
				dot += rows[i][l] * rows[j][l]
			}
			var s float64
			if norms[i] > 0 && norms[j] > 0 {
				s = dot / (norms[i] * norms[j])
			}
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}
