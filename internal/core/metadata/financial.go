package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

var (
	currencyRe = regexp.MustCompile(`(?i)([$€£])\s?([\d,]+(?:\.\d+)?)\s*(billion|million|thousand|bn|[BMK])?\b`)
	percentRe  = regexp.MustCompile(`(-?[\d,]+(?:\.\d+)?)\s?%`)
	metricRe   = regexp.MustCompile(`(?i)\b(revenue|net income|gross profit|operating income|ebitda|eps|earnings per share|free cash flow|operating margin|gross margin)\b(?:[^.\n\d]{0,40})(-?[\d,]+(?:\.\d+)?)`)
)

var multipliers = map[string]float64{
	"billion": 1e9, "bn": 1e9, "b": 1e9,
	"million": 1e6, "m": 1e6,
	"thousand": 1e3, "k": 1e3,
}

var currencyUnits = map[string]string{"$": "USD", "€": "EUR", "£": "GBP"}

// ExtractFinancialEntities runs the financial regex families over the
// content. Normalized stays nil when the numeric part cannot be parsed.
func ExtractFinancialEntities(content string) []domain.FinancialEntity {
	if content == "" {
		return nil
	}

	var out []domain.FinancialEntity
	claimed := make([][2]int, 0, 8)

	overlaps := func(start, end int) bool {
		for _, span := range claimed {
			if start < span[1] && end > span[0] {
				return true
			}
		}
		return false
	}

	for _, idx := range currencyRe.FindAllStringSubmatchIndex(content, -1) {
		start, end := idx[0], idx[1]
		claimed = append(claimed, [2]int{start, end})
		m := submatches(content, idx)

		normalized := parseAmount(m[2])
		if normalized != nil && m[3] != "" {
			if mult, ok := multipliers[strings.ToLower(m[3])]; ok {
				v := *normalized * mult
				normalized = &v
			}
		}
		out = append(out, domain.FinancialEntity{
			Type:       domain.FinancialCurrencyAmount,
			Raw:        content[start:end],
			Normalized: normalized,
			Unit:       currencyUnits[m[1]],
			Confidence: 0.9,
			Position:   start,
		})
	}

	for _, idx := range percentRe.FindAllStringSubmatchIndex(content, -1) {
		start, end := idx[0], idx[1]
		if overlaps(start, end) {
			continue
		}
		claimed = append(claimed, [2]int{start, end})
		m := submatches(content, idx)

		out = append(out, domain.FinancialEntity{
			Type:       domain.FinancialPercentage,
			Raw:        content[start:end],
			Normalized: parseAmount(m[1]),
			Unit:       "%",
			Confidence: 0.85,
			Position:   start,
		})
	}

	for _, idx := range metricRe.FindAllStringSubmatchIndex(content, -1) {
		start, end := idx[0], idx[1]
		if overlaps(start, end) {
			continue
		}
		m := submatches(content, idx)

		out = append(out, domain.FinancialEntity{
			Type:       domain.FinancialMetric,
			Raw:        content[start:end],
			Normalized: parseAmount(m[2]),
			Unit:       strings.ToLower(m[1]),
			Confidence: 0.7,
			Position:   start,
		})
	}

	return out
}

func parseAmount(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
