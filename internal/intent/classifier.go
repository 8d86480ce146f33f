package intent

import (
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Scoring constants. Each distinct matched keyword contributes
// keywordScore * pattern weight; a regex hit contributes patternScore *
// pattern weight at most once per pattern.
const (
	keywordScore = 0.3
	patternScore = 0.5

	// GeneralConfidence is the fixed confidence reported when no pattern
	// matches and the classifier falls back to the General intent.
	GeneralConfidence = 0.5

	// DefaultCacheSize bounds the classification result cache.
	DefaultCacheSize = 1024
)

// classification is the cached outcome for one normalized query.
type classification struct {
	intent     Intent
	confidence float64
}

// Classifier assigns an intent and a confidence in [0,1] to a query.
// Classification is deterministic: ties between equally scored patterns
// resolve to the pattern earlier in the configured table. A Classifier is
// safe for concurrent use; results are memoized in an LRU cache.
type Classifier struct {
	patterns []Pattern
	cache    *lru.Cache[string, classification]
}

// NewClassifier creates a classifier over the default pattern table.
func NewClassifier() *Classifier {
	return NewClassifierWithPatterns(DefaultPatterns())
}

// NewClassifierWithPatterns creates a classifier over a custom table.
// The table is not copied; callers must not mutate it afterwards.
func NewClassifierWithPatterns(patterns []Pattern) *Classifier {
	cache, _ := lru.New[string, classification](DefaultCacheSize)
	return &Classifier{
		patterns: patterns,
		cache:    cache,
	}
}

// Classify returns the winning intent and its confidence for the query.
// The query is matched lowercased; confidence is min(score/2, 1). A query
// matching no pattern classifies as General with GeneralConfidence.
func (c *Classifier) Classify(query string) (Intent, float64) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return General, GeneralConfidence
	}

	if cached, ok := c.cache.Get(key); ok {
		return cached.intent, cached.confidence
	}

	best := General
	bestScore := 0.0
	for _, p := range c.patterns {
		score := c.scorePattern(p, key)
		// Strict inequality keeps the earlier pattern on ties.
		if score > bestScore {
			best = p.Intent
			bestScore = score
		}
	}

	result := classification{intent: General, confidence: GeneralConfidence}
	if bestScore > 0 {
		confidence := bestScore / 2.0
		if confidence > 1.0 {
			confidence = 1.0
		}
		result = classification{intent: best, confidence: confidence}
	}

	c.cache.Add(key, result)
	slog.Debug("query classified",
		slog.String("intent", string(result.intent)),
		slog.Float64("confidence", result.confidence))
	return result.intent, result.confidence
}

// scorePattern accumulates the score of one pattern against the
// lowercased query: keywordScore*weight per distinct matched keyword,
// plus patternScore*weight if any regex matches.
func (c *Classifier) scorePattern(p Pattern, query string) float64 {
	score := 0.0
	for _, kw := range p.Keywords {
		if strings.Contains(query, kw) {
			score += keywordScore * p.Weight
		}
	}
	for _, re := range p.Patterns {
		if re.MatchString(query) {
			score += patternScore * p.Weight
			break
		}
	}
	return score
}
