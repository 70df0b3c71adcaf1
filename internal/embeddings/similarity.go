// ABOUTME: Vector similarity helpers shared by the local store backends.
// ABOUTME: Cosine similarity over float32 vectors, computed in float64.
package embeddings

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched, empty, or zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
