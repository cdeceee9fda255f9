package textutil

import (
	"regexp"
	"sort"
	"strings"
)

const fingerprintKeywords = 10

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// stopWords covers common English filler plus words so generic across
// product pitches (tool, app, platform, saas) that they would dominate
// every fingerprint and inflate similarity between unrelated ideas.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "for": {}, "to": {}, "of": {},
	"and": {}, "in": {}, "with": {}, "that": {}, "is": {}, "it": {},
	"on": {}, "by": {}, "as": {}, "at": {}, "from": {}, "or": {},
	"be": {}, "this": {}, "tool": {}, "app": {}, "platform": {},
	"software": {}, "saas": {}, "product": {}, "service": {},
	"use": {}, "using": {}, "can": {}, "will": {}, "way": {},
	"make": {}, "help": {}, "helps": {},
}

// Tokenize splits folded, lowercased text into tokens, dropping stop words
// and tokens shorter than three characters.
func Tokenize(text string) []string {
	lowered := strings.ToLower(FoldDiacritics(text))
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 3 {
			continue
		}
		if _, ok := stopWords[token]; ok {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// KeywordFingerprint reduces text to its ten most frequent keywords, sorted
// alphabetically and joined with "|". Returns "" when no keywords survive
// filtering. Equal frequencies are broken alphabetically so the signature is
// deterministic.
func KeywordFingerprint(text string) string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return ""
	}
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}

	unique := make([]string, 0, len(counts))
	for token := range counts {
		unique = append(unique, token)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i] < unique[j]
	})

	if len(unique) > fingerprintKeywords {
		unique = unique[:fingerprintKeywords]
	}
	sort.Strings(unique)
	return strings.Join(unique, "|")
}

// FingerprintTokens splits a stored fingerprint back into its token set.
func FingerprintTokens(fingerprint string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Split(fingerprint, "|") {
		if token == "" {
			continue
		}
		tokens[token] = struct{}{}
	}
	return tokens
}
