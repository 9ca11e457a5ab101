package chunking

import (
	"strings"
	"unicode"
)

// densityScore estimates information density of a span of text in [0,1].
// Dense text (numbers, names, punctuation, long sentences) gets smaller
// chunks so single facts are not buried.
func densityScore(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	numeric := 0
	capitalized := 0
	for _, word := range words {
		trimmed := strings.Trim(word, ".,;:()[]\"'")
		if trimmed == "" {
			continue
		}
		if isNumericWord(trimmed) {
			numeric++
		}
		first := []rune(trimmed)[0]
		if unicode.IsUpper(first) {
			capitalized++
		}
	}

	numericDensity := capAt(float64(numeric)/float64(len(words)), 0.3)
	capitalDensity := capAt(float64(capitalized)/float64(len(words)), 0.2)

	punct := 0
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			punct++
		}
	}
	punctDensity := 0.0
	if len(text) > 0 {
		punctDensity = capAt(float64(punct)/float64(len(text)), 0.5)
	}

	complexity := 0.0
	if sentences := splitSentences(text); len(sentences) > 0 {
		complexity = float64(len(words)) / float64(len(sentences)) / 25
		if complexity > 1 {
			complexity = 1
		}
	}

	return 0.3*numericDensity + 0.2*capitalDensity + 0.2*punctDensity + 0.3*complexity
}

func isNumericWord(word string) bool {
	digits := 0
	for _, r := range word {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits > 0 && digits*2 >= len(word)
}

func capAt(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}
