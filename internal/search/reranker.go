package search

import (
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/xiaocao12306/gamewiki-sub002/internal/intent"
	"github.com/xiaocao12306/gamewiki-sub002/internal/profile"
)

// chunkTypeMapping lists content-type phrases a chunk topic should carry
// to serve each intent.
var chunkTypeMapping = map[intent.Intent][]string{
	intent.Recommendation: {
		"recommendation", "warbond recommendation", "build recommendation",
		"weapon recommendation", "priority", "tier list", "best choice",
	},
	intent.Explanation: {
		"explanation", "introduction", "overview", "basic info",
		"what is", "description", "guide introduction",
	},
	intent.Strategy: {
		"strategy", "tactics", "boss guide", "enemy guide",
		"how to beat", "walkthrough", "tips",
	},
	intent.Comparison: {
		"comparison", "versus", "difference", "pros and cons",
		"which is better", "analysis",
	},
	intent.Build: {
		"build guide", "loadout", "equipment setup", "gear recommendation",
		"build recommendation", "optimal build",
	},
	intent.Unlock: {
		"unlock guide", "how to unlock", "requirements", "prerequisites",
		"unlock conditions", "acquisition",
	},
}

// Per-intent bonus terms checked against topic and summary.
var (
	recommendationTerms = []string{"recommendation", "推荐", "priority", "优先", "tier", "best", "top"}
	explanationTerms    = []string{"explained", "解释", "introduction", "介绍", "what is", "overview"}
	strategyTerms       = []string{"guide", "攻略", "strategy", "tactics", "tips", "weak point"}
)

// profileBoostScale converts profile term weights (roughly 1..5) into a
// bounded relevance contribution.
const profileBoostScale = 0.05

// Reranker reorders fused results so chunks matching the query intent
// surface first. The blend between fused score and intent relevance
// shifts toward intent as classification confidence rises.
type Reranker struct {
	classifier *intent.Classifier
	profiles   *profile.Registry
	baseWeight float64
	logger     *slog.Logger
}

// NewReranker creates a reranker. baseWeight is the intent share of the
// blend before confidence adjustment.
func NewReranker(classifier *intent.Classifier, profiles *profile.Registry, baseWeight float64, logger *slog.Logger) *Reranker {
	if logger == nil {
		logger = slog.Default()
	}
	if baseWeight <= 0 || baseWeight >= 1 {
		baseWeight = 0.4
	}
	return &Reranker{
		classifier: classifier,
		profiles:   profiles,
		baseWeight: baseWeight,
		logger:     logger,
	}
}

// Rerank scores every result against the query intent and returns a new
// slice sorted by combined score. Input order is the tie-break, so
// equal-scoring results keep their fused order.
func (rr *Reranker) Rerank(results []*Result, query, gameID string) ([]*Result, intent.Intent, float64) {
	detected, confidence := rr.classifier.Classify(query)
	if len(results) == 0 {
		return results, detected, confidence
	}

	intentWeight := rr.baseWeight * (0.5 + confidence*0.5)
	semanticWeight := 1.0 - intentWeight
	prof := rr.profiles.Get(gameID)

	reranked := make([]*Result, 0, len(results))
	for _, r := range results {
		intentScore := rr.intentRelevance(r.Chunk, detected, prof)
		combined := clamp01(r.Score*semanticWeight + intentScore*intentWeight)

		cp := r.clone()
		cp.OriginalScore = r.Score
		cp.IntentScore = intentScore
		cp.CombinedScore = combined
		cp.DetectedIntent = string(detected)
		cp.IntentConfidence = confidence
		cp.Score = combined
		reranked = append(reranked, cp)
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].CombinedScore > reranked[j].CombinedScore
	})

	rr.logger.Debug("reranked results",
		slog.String("query", query),
		slog.String("intent", string(detected)),
		slog.Float64("confidence", confidence),
		slog.Float64("intent_weight", intentWeight),
		slog.Int("count", len(reranked)))

	return reranked, detected, confidence
}

// intentRelevance scores how well a chunk serves the detected intent,
// clamped to [0,1].
func (rr *Reranker) intentRelevance(chunk *Chunk, detected intent.Intent, prof *profile.KeywordProfile) float64 {
	topic := strings.ToLower(chunk.Topic)
	summary := strings.ToLower(chunk.Summary)
	keywords := make([]string, len(chunk.Keywords))
	for i, kw := range chunk.Keywords {
		keywords[i] = strings.ToLower(kw)
	}

	relevantTypes := chunkTypeMapping[detected]
	score := 0.0

	// Topic that names a matching content type gets the strongest signal.
	for _, chunkType := range relevantTypes {
		if strings.Contains(topic, chunkType) {
			score += 0.5
			break
		}
	}

	// Partial overlap between type phrases and indexed keywords.
	for _, chunkType := range relevantTypes {
		typeWords := strings.Fields(chunkType)
		matching := 0
		for _, word := range typeWords {
			for _, kw := range keywords {
				if strings.Contains(kw, word) {
					matching++
					break
				}
			}
		}
		if matching > 0 {
			score += 0.3 * float64(matching) / float64(len(typeWords))
		}
	}

	switch detected {
	case intent.Recommendation:
		if containsAny(topic, summary, recommendationTerms) {
			score += 0.4
		}
	case intent.Explanation:
		if containsAny(topic, summary, explanationTerms) {
			score += 0.3
		}
	case intent.Strategy:
		if containsAny(topic, summary, strategyTerms) {
			score += 0.3
		}
	}

	// Domain terms from the game profile nudge chunks that speak the
	// game's vocabulary.
	if prof != nil {
		var boost float64
		prof.Terms(func(term string, weight float64) {
			if strings.Contains(topic, term) {
				boost += weight * profileBoostScale
			}
		})
		score += math.Min(boost, 0.2)
	}

	return clamp01(score)
}

func containsAny(topic, summary string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(topic, t) || strings.Contains(summary, t) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
