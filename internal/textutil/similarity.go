package textutil

import "math"

// JaccardSimilarity compares two keyword fingerprints as token sets:
// |A∩B| / |A∪B|. Returns 0 when either side is empty.
func JaccardSimilarity(a, b string) float64 {
	setA := FingerprintTokens(a)
	setB := FingerprintTokens(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var intersection int
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched lengths or zero-norm inputs.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
