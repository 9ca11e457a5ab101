package domain

// QueryComplexity is a coarse surface-pattern estimate of query difficulty.
type QueryComplexity string

const (
	ComplexitySimple   QueryComplexity = "simple"
	ComplexityModerate QueryComplexity = "moderate"
	ComplexityComplex  QueryComplexity = "complex"
)

// QueryIntent classifies what kind of answer the query is after.
type QueryIntent string

const (
	IntentFactual     QueryIntent = "factual"
	IntentAnalytical  QueryIntent = "analytical"
	IntentComparative QueryIntent = "comparative"
	IntentExploratory QueryIntent = "exploratory"
)

// QuerySpecificity drives threshold and limit adjustments.
type QuerySpecificity string

const (
	SpecificitySpecific QuerySpecificity = "specific"
	SpecificityGeneral  QuerySpecificity = "general"
	SpecificityBroad    QuerySpecificity = "broad"
)

// SearchStrategy names the retrieval plan chosen at classification time.
type SearchStrategy string

const (
	StrategySemantic      SearchStrategy = "semantic"
	StrategyHybrid        SearchStrategy = "hybrid"
	StrategyExactMatch    SearchStrategy = "exact_match"
	StrategyMultiStage    SearchStrategy = "multi_stage"
	StrategyTemporalBoost SearchStrategy = "temporal_boost"
)

// QueryContext is computed once per query and drives every orchestration
// decision. Immutable after classification.
type QueryContext struct {
	Query              string           `json:"query"`
	IsTemporal         bool             `json:"is_temporal"`
	IsFinancial        bool             `json:"is_financial"`
	Complexity         QueryComplexity  `json:"complexity"`
	Intent             QueryIntent      `json:"intent"`
	Specificity        QuerySpecificity `json:"specificity"`
	SearchStrategy     SearchStrategy   `json:"search_strategy"`
	SuggestedThreshold float64          `json:"suggested_threshold"`
	SuggestedLimit     int              `json:"suggested_limit"`
	Reasoning          string           `json:"reasoning"`
}
