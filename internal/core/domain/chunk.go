package domain

// SectionType is the coarse structural classification of a chunk's source text.
type SectionType string

const (
	SectionFinancialStatement SectionType = "financial_statement"
	SectionTable              SectionType = "table"
	SectionHeader             SectionType = "header"
	SectionParagraph          SectionType = "paragraph"
)

// SemanticType summarizes the dominant signal mix of a chunk.
type SemanticType string

const (
	SemanticFinancialData   SemanticType = "financial_data"
	SemanticMixed           SemanticType = "mixed"
	SemanticTemporalContext SemanticType = "temporal_context"
	SemanticGeneral         SemanticType = "general"
)

// Chunk is the atomic unit of retrieval: a bounded span of document text with
// a precomputed similarity score. Immutable once created; re-scoring happens
// on copies.
type Chunk struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	ChunkIndex int            `json:"chunk_index"`
	Metadata   *ChunkMetadata `json:"metadata,omitempty"`
}

// ChunkMetadata is derived once at ingestion and attached to a chunk for the
// lifetime of the corpus.
type ChunkMetadata struct {
	TemporalEntities  []TemporalEntity  `json:"temporal_entities,omitempty"`
	FinancialEntities []FinancialEntity `json:"financial_entities,omitempty"`
	SectionType       SectionType       `json:"section_type"`
	KeyTerms          []string          `json:"key_terms,omitempty"`
	NumericalDensity  float64           `json:"numerical_density"`
	TemporalDensity   float64           `json:"temporal_density"`
	SemanticType      SemanticType      `json:"chunk_semantic_type"`
	URLs              []string          `json:"urls,omitempty"`
}
