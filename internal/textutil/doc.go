// Package textutil provides the text processing primitives behind topic
// deduplication.
//
// The primary use cases are:
//   - Reducing idea text to keyword fingerprints for fast duplicate checks
//   - Computing Jaccard similarity between fingerprints and cosine similarity
//     between embedding vectors
//   - Normalizing candidate titles into topic-key slugs for reservation claims
//
// Tokenization folds diacritics, lowercases, splits on non-alphanumeric
// characters, and drops stop words and tokens shorter than 3 characters.
package textutil
