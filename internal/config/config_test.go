package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRetrievalDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RETRIEVAL_MIN_CONFIDENCE", "")
	t.Setenv("RETRIEVAL_SIMILARITY_THRESHOLD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxStages != 3 {
		t.Fatalf("expected default max stages 3, got %d", cfg.MaxStages)
	}
	if cfg.MinConfidence != 0.85 {
		t.Fatalf("expected default min confidence 0.85, got %v", cfg.MinConfidence)
	}
	if cfg.SimilarityThreshold != 0.45 {
		t.Fatalf("expected default similarity threshold 0.45, got %v", cfg.SimilarityThreshold)
	}
	if cfg.SemanticWeight != 0.8 || cfg.KeywordWeight != 0.2 {
		t.Fatalf("unexpected rerank weights %v/%v", cfg.SemanticWeight, cfg.KeywordWeight)
	}
	if cfg.ChunkTargetTokens != 500 || cfg.ChunkMaxTokens != 800 {
		t.Fatalf("unexpected chunk defaults %d/%d", cfg.ChunkTargetTokens, cfg.ChunkMaxTokens)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RETRIEVAL_MIN_CONFIDENCE", "0.9")
	t.Setenv("RETRIEVAL_ADJACENCY_WINDOW", "3")
	t.Setenv("EMBED_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MinConfidence != 0.9 {
		t.Fatalf("expected min confidence override 0.9, got %v", cfg.MinConfidence)
	}
	if cfg.AdjacencyWindow != 3 {
		t.Fatalf("expected adjacency window 3, got %d", cfg.AdjacencyWindow)
	}
	if cfg.EmbedRPS != 2.5 {
		t.Fatalf("expected embed rps 2.5, got %v", cfg.EmbedRPS)
	}
}

func TestLoadYAMLOverlayThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := "min_confidence: 0.7\nqdrant_collection: overlay_chunks\n"
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RETRIEVAL_MIN_CONFIDENCE", "0.8")
	t.Setenv("QDRANT_COLLECTION", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QdrantCollection != "overlay_chunks" {
		t.Fatalf("expected overlay collection, got %q", cfg.QdrantCollection)
	}
	if cfg.MinConfidence != 0.8 {
		t.Fatalf("expected env to win over overlay, got %v", cfg.MinConfidence)
	}
}

func TestLoadMissingOverlayFileFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoadMalformedNumberFallsBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RETRIEVAL_MAX_STAGES", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxStages != 3 {
		t.Fatalf("expected fallback max stages 3, got %d", cfg.MaxStages)
	}
}
