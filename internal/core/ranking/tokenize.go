// Package ranking contains the pure scoring primitives of the retrieval
// engine: tokenization, BM25, result-set quality metrics, MMR diversity
// selection and the rerank strategies. Everything here is synchronous and
// side-effect free, so callers may invoke it from any goroutine.
package ranking

import (
	"strings"
	"unicode"
)

// Tokenize lowercases, strips non-word characters and splits on boundaries,
// discarding tokens of length <= 2.
func Tokenize(s string) []string {
	return tokenizeMin(s, 3)
}

func tokenizeMin(s string, minLen int) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	flush := func() {
		if b.Len() >= minLen {
			tokens = append(tokens, b.String())
		}
		b.Reset()
	}
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func termSet(s string, minLen int) map[string]struct{} {
	tokens := tokenizeMin(s, minLen)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func termFrequencies(tokens []string) map[string]int {
	out := make(map[string]int, len(tokens))
	for _, token := range tokens {
		out[token]++
	}
	return out
}

// jaccard returns |a ∩ b| / |a ∪ b| over two term sets; 0 for empty union.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for term := range a {
		if _, ok := b[term]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
