// Package search implements the hybrid retrieval read path: vector and
// keyword branches run side by side, their ranked lists are fused, and
// the fused list is reranked against the detected query intent.
package search

import (
	"context"
	"time"
)

// Chunk is one retrievable unit of wiki content.
type Chunk struct {
	// ID uniquely identifies the chunk across both indices.
	ID string `json:"id"`

	// Topic is the page or section heading the chunk came from.
	Topic string `json:"topic"`

	// Summary is a short abstract of the chunk content.
	Summary string `json:"summary,omitempty"`

	// Keywords are pre-extracted index terms.
	Keywords []string `json:"keywords,omitempty"`

	// Content is the chunk body text.
	Content string `json:"content"`

	// GameID names the game wiki this chunk belongs to (e.g. "helldiver2").
	GameID string `json:"game_id,omitempty"`
}

// Result is a chunk with retrieval scores attached. Branch adapters fill
// Score; fusion and reranking overwrite it and preserve provenance in the
// remaining fields.
type Result struct {
	Chunk *Chunk `json:"chunk"`

	// Score is the current ranking score. After fusion it holds the fused
	// score; after reranking it holds the combined score.
	Score float64 `json:"score"`

	// VectorScore is the similarity from the vector branch (0 if absent).
	VectorScore float64 `json:"vector_score,omitempty"`

	// BM25Score is the score from the keyword branch (0 if absent).
	BM25Score float64 `json:"bm25_score,omitempty"`

	// OriginalScore is the pre-rerank fused score.
	OriginalScore float64 `json:"original_score,omitempty"`

	// IntentScore is the intent relevance component from reranking.
	IntentScore float64 `json:"intent_score,omitempty"`

	// CombinedScore is the blended rerank score.
	CombinedScore float64 `json:"combined_score,omitempty"`

	// DetectedIntent and IntentConfidence annotate which classification
	// drove the rerank.
	DetectedIntent   string  `json:"detected_intent,omitempty"`
	IntentConfidence float64 `json:"intent_confidence,omitempty"`
}

// clone returns a shallow copy sharing the chunk.
func (r *Result) clone() *Result {
	cp := *r
	return &cp
}

// Index is a single retrieval branch: vector or keyword.
type Index interface {
	// Search returns up to topK results ranked best first.
	Search(ctx context.Context, query string, topK int) ([]*Result, error)
}

// Options configures a single search call.
type Options struct {
	// TopK is the number of results to return (default 5).
	TopK int

	// GameID selects the keyword profile used during reranking.
	GameID string
}

// Response is the outcome of one orchestrated search.
type Response struct {
	Results []*Result `json:"results"`

	// CacheHit reports whether the response was served from the result cache.
	CacheHit bool `json:"cache_hit"`

	// Intent and Confidence describe the classified query intent. Empty
	// when intent optimization is disabled.
	Intent     string  `json:"intent,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Config configures the search engine pipeline.
type Config struct {
	// FusionMethod selects the fusion strategy: "rrf", "weighted" or
	// "normalized". Unknown values fall back to normalized fusion.
	FusionMethod string

	// VectorWeight and BM25Weight are the branch weights used by the
	// weighted and normalized strategies.
	VectorWeight float64
	BM25Weight   float64

	// RRFConstant is the RRF smoothing parameter k.
	RRFConstant int

	// TopK is the default result count.
	TopK int

	// CacheEnabled toggles the result cache.
	CacheEnabled bool
	CacheSize    int
	CacheTTL     time.Duration

	// ParallelEnabled toggles concurrent branch execution.
	ParallelEnabled bool

	// BranchTimeout bounds each retrieval branch. Zero disables the
	// deadline.
	BranchTimeout time.Duration

	// OptimizationEnabled toggles query normalization and intent-aware
	// reranking together.
	OptimizationEnabled bool

	// IntentWeight is the base share of the rerank blend given to intent
	// relevance before confidence adjustment.
	IntentWeight float64
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		FusionMethod:        FusionRRF,
		VectorWeight:        0.6,
		BM25Weight:          0.4,
		RRFConstant:         DefaultRRFConstant,
		TopK:                5,
		CacheEnabled:        true,
		CacheSize:           1000,
		CacheTTL:            time.Hour,
		ParallelEnabled:     true,
		BranchTimeout:       10 * time.Second,
		OptimizationEnabled: true,
		IntentWeight:        0.4,
	}
}
