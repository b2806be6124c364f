// Package scoring drives the match-and-improve pipeline: embedding-based
// similarity, the iterative rewrite loop, and the streaming run surface.
package scoring

import "math"

// Flatten collapses a provider batch response into a single vector. The
// embedding provider returns one row per input; a single text therefore
// arrives as a 1×N matrix.
func Flatten(batch [][]float64) []float64 {
	if len(batch) == 0 {
		return nil
	}
	total := 0
	for _, row := range batch {
		total += len(row)
	}
	flat := make([]float64, 0, total)
	for _, row := range batch {
		flat = append(flat, row...)
	}
	return flat
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Degenerate inputs score 0.0 rather than producing NaN or a truncated
// dot product: a zero-magnitude vector on either side, and vectors of
// different lengths, which only occur when an embedding provider returns
// inconsistent dimensions.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
