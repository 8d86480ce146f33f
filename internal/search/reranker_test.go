package search

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaocao12306/gamewiki-sub002/internal/intent"
	"github.com/xiaocao12306/gamewiki-sub002/internal/profile"
)

func newTestReranker() *Reranker {
	return NewReranker(intent.NewClassifier(), profile.NewRegistry(), 0.4, slog.Default())
}

func TestRerankPromotesIntentMatch(t *testing.T) {
	rr := newTestReranker()

	// Given a generic lore chunk ranked above a boss guide chunk
	results := []*Result{
		{
			Chunk: &Chunk{ID: "lore", Topic: "Bile Titan lore and appearance"},
			Score: 0.80,
		},
		{
			Chunk: &Chunk{
				ID:       "guide",
				Topic:    "Bile Titan boss guide: weak point tactics",
				Summary:  "strategy and tips for killing bile titans",
				Keywords: []string{"strategy", "tactics", "weak point"},
			},
			Score: 0.70,
		},
	}

	// When reranking a strategy query
	reranked, detected, confidence := rr.Rerank(results, "怎么打 Bile Titan", "helldiver2")

	// Then the guide chunk surfaces first
	require.Len(t, reranked, 2)
	assert.Equal(t, intent.Strategy, detected)
	assert.Greater(t, confidence, 0.0)
	assert.Equal(t, "guide", reranked[0].Chunk.ID)
	assert.Greater(t, reranked[0].IntentScore, reranked[1].IntentScore)
}

func TestRerankAnnotatesProvenance(t *testing.T) {
	rr := newTestReranker()

	results := []*Result{
		{Chunk: &Chunk{ID: "a", Topic: "warbond tier list recommendation"}, Score: 0.5},
	}

	reranked, detected, confidence := rr.Rerank(results, "best warbond recommendations guide", "")

	require.Len(t, reranked, 1)
	r := reranked[0]
	assert.Equal(t, intent.Recommendation, detected)
	assert.InDelta(t, 0.5, r.OriginalScore, 1e-9)
	assert.Equal(t, string(intent.Recommendation), r.DetectedIntent)
	assert.InDelta(t, confidence, r.IntentConfidence, 1e-9)
	assert.InDelta(t, r.CombinedScore, r.Score, 1e-9)
	assert.GreaterOrEqual(t, r.CombinedScore, 0.0)
	assert.LessOrEqual(t, r.CombinedScore, 1.0)

	// Input slice is not mutated
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
	assert.Empty(t, results[0].DetectedIntent)
}

func TestRerankGeneralIntentKeepsOrder(t *testing.T) {
	rr := newTestReranker()

	// A query matching no pattern classifies as GENERAL with 0.5 confidence
	results := []*Result{
		{Chunk: &Chunk{ID: "a", Topic: "random page one"}, Score: 0.9},
		{Chunk: &Chunk{ID: "b", Topic: "random page two"}, Score: 0.6},
	}

	reranked, detected, confidence := rr.Rerank(results, "zzz qqq", "")

	assert.Equal(t, intent.General, detected)
	assert.InDelta(t, 0.5, confidence, 1e-9)
	// No chunk carries intent relevance, so fused order survives
	assert.Equal(t, "a", reranked[0].Chunk.ID)
	assert.Equal(t, "b", reranked[1].Chunk.ID)
}

func TestRerankStableOnEqualScores(t *testing.T) {
	rr := newTestReranker()

	results := []*Result{
		{Chunk: &Chunk{ID: "first", Topic: "plain"}, Score: 0.5},
		{Chunk: &Chunk{ID: "second", Topic: "plain"}, Score: 0.5},
	}

	reranked, _, _ := rr.Rerank(results, "zzz qqq", "")
	assert.Equal(t, "first", reranked[0].Chunk.ID)
	assert.Equal(t, "second", reranked[1].Chunk.ID)
}

func TestRerankEmptyResults(t *testing.T) {
	rr := newTestReranker()

	reranked, detected, confidence := rr.Rerank(nil, "how to beat charger", "")
	assert.Empty(t, reranked)
	assert.Equal(t, intent.Strategy, detected)
	assert.Greater(t, confidence, 0.0)
}

func TestIntentRelevanceClamped(t *testing.T) {
	rr := newTestReranker()

	// A chunk stacking every strategy signal plus profile terms
	chunk := &Chunk{
		ID:       "stacked",
		Topic:    "bile titan boss guide strategy tactics tips walkthrough weak point",
		Summary:  "guide 攻略 strategy tactics tips weak point",
		Keywords: []string{"strategy", "tactics", "boss", "guide", "how", "to", "beat", "walkthrough", "tips", "enemy"},
	}

	score := rr.intentRelevance(chunk, intent.Strategy, rr.profiles.Get("helldiver2"))
	assert.LessOrEqual(t, score, 1.0)
	assert.Greater(t, score, 0.5)
}

func TestConfidenceScalesIntentWeight(t *testing.T) {
	rr := newTestReranker()

	mkResults := func() []*Result {
		return []*Result{
			{Chunk: &Chunk{ID: "plain", Topic: "plain lore"}, Score: 0.75},
			{Chunk: &Chunk{ID: "rec", Topic: "warbond recommendation priority tier list"}, Score: 0.60},
		}
	}

	// Low-confidence query: single keyword only
	lowRanked, _, lowConf := rr.Rerank(mkResults(), "which warbond", "")
	// High-confidence query: keywords plus regex
	highRanked, _, highConf := rr.Rerank(mkResults(), "recommend which warbond next after liberty", "")

	require.Greater(t, highConf, lowConf)

	// The intent-matching chunk gains more ground under high confidence
	lowGap := scoreOf(lowRanked, "rec") - scoreOf(lowRanked, "plain")
	highGap := scoreOf(highRanked, "rec") - scoreOf(highRanked, "plain")
	assert.Greater(t, highGap, lowGap)
}

func scoreOf(results []*Result, id string) float64 {
	for _, r := range results {
		if r.Chunk.ID == id {
			return r.CombinedScore
		}
	}
	return -1
}
