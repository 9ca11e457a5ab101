// Package metadata derives temporal and financial entities plus a coarse
// structural classification from raw chunk text. It tags chunks at ingestion
// time and supplies ranking signals at query time. Extraction is a pure
// function of the content.
package metadata

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

var (
	urlRe = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

	financialStatementRe = regexp.MustCompile(`(?i)\b(balance sheet|income statement|cash flow statement|statement of operations|total assets|total liabilities|shareholders.? equity|retained earnings)\b`)
	numericTokenRe       = regexp.MustCompile(`^[-$€£]?[\d,]+(?:\.\d+)?%?$`)
)

var stopTerms = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "have": {}, "been": {}, "were": {}, "are": {}, "was": {},
	"will": {}, "which": {}, "their": {}, "there": {}, "than": {}, "then": {},
	"into": {}, "over": {}, "also": {}, "such": {}, "these": {}, "those": {},
}

// Extract derives the full ChunkMetadata for a piece of chunk text.
func Extract(content string) domain.ChunkMetadata {
	temporal := ExtractTemporalEntities(content)
	financial := ExtractFinancialEntities(content)

	tokens := strings.Fields(content)
	numericDensity := numericalDensity(tokens)
	temporalDensity := 0.0
	if len(tokens) > 0 {
		temporalDensity = float64(len(temporal)) / float64(len(tokens))
		if temporalDensity > 1 {
			temporalDensity = 1
		}
	}

	section := classifySection(content, numericDensity)

	return domain.ChunkMetadata{
		TemporalEntities:  temporal,
		FinancialEntities: financial,
		SectionType:       section,
		KeyTerms:          keyTerms(content, 10),
		NumericalDensity:  numericDensity,
		TemporalDensity:   temporalDensity,
		SemanticType:      semanticType(section, numericDensity, len(temporal), len(financial)),
		URLs:              urlRe.FindAllString(content, -1),
	}
}

// classifySection is a priority cascade: financial-statement patterns beat
// table patterns beat header patterns beat the paragraph default.
func classifySection(content string, numericDensity float64) domain.SectionType {
	switch {
	case financialStatementRe.MatchString(content):
		return domain.SectionFinancialStatement
	case looksLikeTable(content, numericDensity):
		return domain.SectionTable
	case looksLikeHeader(content):
		return domain.SectionHeader
	default:
		return domain.SectionParagraph
	}
}

func looksLikeTable(content string, numericDensity float64) bool {
	if strings.Count(content, "|") >= 4 {
		return true
	}
	lines := strings.Split(content, "\n")
	if len(lines) >= 3 && numericDensity > 0.4 {
		return true
	}
	// Aligned columns show up as runs of two or more spaces on most lines.
	columnLines := 0
	for _, line := range lines {
		if strings.Contains(line, "  ") && strings.TrimSpace(line) != "" {
			columnLines++
		}
	}
	return len(lines) >= 3 && columnLines*2 >= len(lines)
}

func looksLikeHeader(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || strings.Contains(trimmed, "\n") {
		return false
	}
	if strings.HasPrefix(trimmed, "#") {
		return true
	}
	if len([]rune(trimmed)) > 80 {
		return false
	}
	letters, uppers := 0, 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	return letters > 0 && float64(uppers) >= 0.6*float64(letters)
}

func semanticType(section domain.SectionType, numericDensity float64, temporalCount, financialCount int) domain.SemanticType {
	switch {
	case section == domain.SectionFinancialStatement || numericDensity > 0.3:
		return domain.SemanticFinancialData
	case temporalCount > 0 && financialCount > 0:
		return domain.SemanticMixed
	case temporalCount > 0:
		return domain.SemanticTemporalContext
	default:
		return domain.SemanticGeneral
	}
}

func numericalDensity(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	numeric := 0
	for _, token := range tokens {
		if numericTokenRe.MatchString(strings.Trim(token, ".,;:()")) {
			numeric++
		}
	}
	return float64(numeric) / float64(len(tokens))
}

// keyTerms returns the most frequent content terms (length > 3, stop words
// removed), most frequent first, ties alphabetical for determinism.
func keyTerms(content string, limit int) []string {
	freq := make(map[string]int)
	for _, token := range strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(token) <= 3 {
			continue
		}
		if _, stop := stopTerms[token]; stop {
			continue
		}
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}
