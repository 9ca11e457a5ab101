package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/adaptive-retrieval/internal/core/domain"
	"github.com/kirillkom/adaptive-retrieval/internal/core/metadata"
)

const (
	baseThreshold = 0.65
	baseLimit     = 20
)

var (
	temporalWords = []string{
		"recent", "recently", "latest", "current", "today", "yesterday",
		"last", "previous", "upcoming", "when", "historical", "trend",
	}
	financialWords = []string{
		"revenue", "profit", "margin", "earnings", "income", "sales",
		"cost", "costs", "expense", "expenses", "growth", "ebitda",
		"cash", "dividend", "valuation", "forecast", "budget",
	}
	analyticalWords = []string{
		"why", "how", "explain", "analyze", "analysis", "impact",
		"cause", "driver", "drivers", "effect", "implication",
	}
	comparativeWords = []string{
		"compare", "comparison", "versus", "vs", "difference",
		"better", "worse", "higher", "lower",
	}
	exploratoryWords = []string{
		"overview", "summary", "summarize", "everything", "all",
		"comprehensive", "landscape", "background",
	}
	specificWords = []string{"exact", "exactly", "specific", "specifically", "precise"}
	broadWords    = []string{"all", "every", "overview", "comprehensive", "summary", "general"}
)

// ClassifyQuery derives the query context from surface patterns: word count,
// question and comparison markers, and temporal/financial signal hits. The
// result is computed once and drives every later orchestration decision.
func ClassifyQuery(query string) domain.QueryContext {
	lower := strings.ToLower(query)
	words := strings.Fields(lower)

	qc := domain.QueryContext{
		Query:       query,
		IsTemporal:  len(metadata.ExtractTemporalEntities(query)) > 0 || hasAnyWord(words, temporalWords),
		IsFinancial: len(metadata.ExtractFinancialEntities(query)) > 0 || hasAnyWord(words, financialWords),
	}

	qc.Complexity = classifyComplexity(words)
	qc.Intent = classifyIntent(words)
	qc.Specificity = classifySpecificity(words, qc)
	qc.SearchStrategy = pickStrategy(qc)
	qc.SuggestedThreshold, qc.SuggestedLimit = tuneBudget(qc)
	qc.Reasoning = fmt.Sprintf(
		"complexity=%s intent=%s specificity=%s temporal=%t financial=%t strategy=%s",
		qc.Complexity, qc.Intent, qc.Specificity, qc.IsTemporal, qc.IsFinancial, qc.SearchStrategy,
	)
	return qc
}

func classifyComplexity(words []string) domain.QueryComplexity {
	markers := countAnyWord(words, analyticalWords) + countAnyWord(words, comparativeWords)
	switch {
	case len(words) > 12 || markers >= 2:
		return domain.ComplexityComplex
	case len(words) <= 4 && markers == 0:
		return domain.ComplexitySimple
	default:
		return domain.ComplexityModerate
	}
}

func classifyIntent(words []string) domain.QueryIntent {
	switch {
	case hasAnyWord(words, comparativeWords):
		return domain.IntentComparative
	case hasAnyWord(words, analyticalWords):
		return domain.IntentAnalytical
	case hasAnyWord(words, exploratoryWords):
		return domain.IntentExploratory
	default:
		return domain.IntentFactual
	}
}

func classifySpecificity(words []string, qc domain.QueryContext) domain.QuerySpecificity {
	switch {
	case hasAnyWord(words, specificWords), qc.IsTemporal && qc.IsFinancial:
		return domain.SpecificitySpecific
	case hasAnyWord(words, broadWords):
		return domain.SpecificityBroad
	default:
		return domain.SpecificityGeneral
	}
}

func pickStrategy(qc domain.QueryContext) domain.SearchStrategy {
	switch {
	case qc.IsTemporal && qc.IsFinancial:
		return domain.StrategyMultiStage
	case qc.Specificity == domain.SpecificitySpecific && qc.Complexity == domain.ComplexitySimple:
		return domain.StrategyExactMatch
	case qc.IsTemporal:
		return domain.StrategyTemporalBoost
	case qc.Complexity == domain.ComplexityComplex,
		qc.Intent == domain.IntentAnalytical,
		qc.Intent == domain.IntentComparative:
		return domain.StrategyMultiStage
	case qc.Complexity == domain.ComplexityModerate:
		return domain.StrategyHybrid
	default:
		return domain.StrategySemantic
	}
}

// tuneBudget raises the threshold and shrinks the limit for specific
// queries, and widens the limit for broad ones.
func tuneBudget(qc domain.QueryContext) (threshold float64, limit int) {
	threshold = baseThreshold
	limit = baseLimit

	switch qc.Specificity {
	case domain.SpecificitySpecific:
		threshold += 0.05
		limit = baseLimit / 2
	case domain.SpecificityBroad:
		threshold -= 0.1
		limit = baseLimit * 2
	}
	if qc.Complexity == domain.ComplexityComplex && limit < baseLimit*3/2 {
		limit = baseLimit * 3 / 2
	}
	return threshold, limit
}

func hasAnyWord(words, markers []string) bool {
	return countAnyWord(words, markers) > 0
}

func countAnyWord(words, markers []string) int {
	n := 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()")
		for _, m := range markers {
			if w == m {
				n++
				break
			}
		}
	}
	return n
}
