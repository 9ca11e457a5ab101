package chunking

import (
	"strings"
	"unicode"
)

// Common abbreviations that end with a period but do not end a sentence.
var abbreviations = map[string]struct{}{
	"dr": {}, "mr": {}, "mrs": {}, "ms": {}, "prof": {}, "jr": {}, "sr": {},
	"e.g": {}, "i.e": {}, "etc": {}, "vs": {}, "approx": {}, "est": {},
	"inc": {}, "corp": {}, "ltd": {}, "co": {}, "no": {}, "fig": {},
	"u.s": {}, "u.k": {}, "jan": {}, "feb": {}, "mar": {}, "apr": {},
	"jun": {}, "jul": {}, "aug": {}, "sep": {}, "sept": {}, "oct": {},
	"nov": {}, "dec": {},
}

// splitSentences breaks text at sentence boundaries, keeping the terminating
// punctuation with each sentence. Abbreviation periods do not split.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Swallow runs like "..." or "?!".
		end := i
		for end+1 < len(runes) && (runes[end+1] == '.' || runes[end+1] == '!' || runes[end+1] == '?') {
			end++
		}

		if r == '.' && isAbbreviation(runes, i) {
			i = end
			continue
		}
		if !boundaryFollows(runes, end) {
			i = end
			continue
		}

		sentence := strings.TrimSpace(string(runes[start : end+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = end + 1
		i = end
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// isAbbreviation reports whether the period at position i terminates a known
// abbreviation rather than a sentence.
func isAbbreviation(runes []rune, i int) bool {
	wordStart := i
	for wordStart > 0 {
		prev := runes[wordStart-1]
		if unicode.IsLetter(prev) || prev == '.' {
			wordStart--
			continue
		}
		break
	}
	word := strings.ToLower(strings.TrimSuffix(string(runes[wordStart:i]), "."))
	if word == "" {
		return false
	}
	_, ok := abbreviations[word]
	return ok
}

// boundaryFollows requires whitespace then an uppercase letter, digit,
// opening quote, or end of text after the punctuation run.
func boundaryFollows(runes []rune, end int) bool {
	j := end + 1
	if j >= len(runes) {
		return true
	}
	if !unicode.IsSpace(runes[j]) {
		return false
	}
	for j < len(runes) && unicode.IsSpace(runes[j]) {
		j++
	}
	if j >= len(runes) {
		return true
	}
	r := runes[j]
	return unicode.IsUpper(r) || unicode.IsDigit(r) || r == '"' || r == '\'' || r == '(' || r == '“'
}
