package metadata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
)

// temporalPattern couples a regex family with its normalizer and a base
// confidence. Families are evaluated in order; a span claimed by an earlier
// family is not re-matched by a later one, so "Q3 2023" is a quarter, not
// also a bare year.
type temporalPattern struct {
	entityType domain.TemporalEntityType
	re         *regexp.Regexp
	confidence float64
	normalize  func(match []string) string
}

var monthNumbers = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

var temporalPatterns = []temporalPattern{
	{
		entityType: domain.TemporalQuarter,
		re:         regexp.MustCompile(`(?i)\bQ([1-4])[\s-]*((?:19|20)\d{2})\b`),
		confidence: 0.9,
		normalize: func(m []string) string {
			return fmt.Sprintf("%s-Q%s", m[2], m[1])
		},
	},
	{
		entityType: domain.TemporalQuarter,
		re:         regexp.MustCompile(`(?i)\b(first|second|third|fourth)\s+quarter(?:\s+of)?\s+((?:19|20)\d{2})\b`),
		confidence: 0.85,
		normalize: func(m []string) string {
			ordinals := map[string]string{"first": "1", "second": "2", "third": "3", "fourth": "4"}
			return fmt.Sprintf("%s-Q%s", m[2], ordinals[strings.ToLower(m[1])])
		},
	},
	{
		entityType: domain.TemporalFiscalYear,
		re:         regexp.MustCompile(`(?i)\b(?:FY[\s-]*|fiscal\s+year\s+)((?:19|20)?\d{2,4})\b`),
		confidence: 0.85,
		normalize: func(m []string) string {
			year := m[1]
			if len(year) == 2 {
				year = "20" + year
			}
			return "FY" + year
		},
	},
	{
		entityType: domain.TemporalDateRange,
		re:         regexp.MustCompile(`\b((?:19|20)\d{2})\s*[-–]\s*((?:19|20)\d{2})\b`),
		confidence: 0.75,
		normalize: func(m []string) string {
			return m[1] + ".." + m[2]
		},
	},
	{
		entityType: domain.TemporalSpecificDate,
		re:         regexp.MustCompile(`\b((?:19|20)\d{2})-(\d{2})-(\d{2})\b`),
		confidence: 0.9,
		normalize: func(m []string) string {
			return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
		},
	},
	{
		entityType: domain.TemporalSpecificDate,
		re:         regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),\s*((?:19|20)\d{2})\b`),
		confidence: 0.85,
		normalize: func(m []string) string {
			day := m[2]
			if len(day) == 1 {
				day = "0" + day
			}
			return fmt.Sprintf("%s-%s-%s", m[3], monthNumbers[strings.ToLower(m[1])], day)
		},
	},
	{
		entityType: domain.TemporalMonth,
		re:         regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\s+((?:19|20)\d{2})\b`),
		confidence: 0.8,
		normalize: func(m []string) string {
			return fmt.Sprintf("%s-%s", m[2], monthNumbers[strings.ToLower(m[1])])
		},
	},
	{
		entityType: domain.TemporalYear,
		re:         regexp.MustCompile(`\b((?:19|20)\d{2})\b`),
		confidence: 0.6,
		normalize: func(m []string) string {
			return m[1]
		},
	},
}

// ExtractTemporalEntities runs the ordered regex families over the content.
// Confidence is boosted for recent years and never negative.
func ExtractTemporalEntities(content string) []domain.TemporalEntity {
	if content == "" {
		return nil
	}

	var out []domain.TemporalEntity
	claimed := make([][2]int, 0, 8)

	overlaps := func(start, end int) bool {
		for _, span := range claimed {
			if start < span[1] && end > span[0] {
				return true
			}
		}
		return false
	}

	for _, pattern := range temporalPatterns {
		for _, idx := range pattern.re.FindAllStringSubmatchIndex(content, -1) {
			start, end := idx[0], idx[1]
			if overlaps(start, end) {
				continue
			}
			claimed = append(claimed, [2]int{start, end})

			match := submatches(content, idx)
			raw := content[start:end]
			out = append(out, domain.TemporalEntity{
				Type:       pattern.entityType,
				Raw:        raw,
				Normalized: pattern.normalize(match),
				Confidence: boostRecent(pattern.confidence, raw),
				Position:   start,
			})
		}
	}
	return out
}

func submatches(content string, idx []int) []string {
	out := make([]string, 0, len(idx)/2)
	for i := 0; i+1 < len(idx); i += 2 {
		if idx[i] < 0 {
			out = append(out, "")
			continue
		}
		out = append(out, content[idx[i]:idx[i+1]])
	}
	return out
}

var yearRe = regexp.MustCompile(`(?:19|20)\d{2}`)

// boostRecent raises confidence for entities mentioning a year close to now.
func boostRecent(base float64, raw string) float64 {
	match := yearRe.FindString(raw)
	if match == "" {
		return base
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return base
	}

	age := time.Now().Year() - year
	if age < 0 {
		age = -age
	}
	switch {
	case age <= 1:
		base += 0.1
	case age <= 3:
		base += 0.05
	}
	if base > 1 {
		base = 1
	}
	return base
}
