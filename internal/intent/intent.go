// Package intent classifies free-text queries into discrete intent
// categories using weighted keyword and regex pattern matching. The
// pattern table is bilingual (zh/en) and immutable for the process
// lifetime.
package intent

import "regexp"

// Intent is the inferred purpose category of a query.
type Intent string

const (
	// Recommendation queries ask what to pick next (warbonds, weapons, tiers).
	Recommendation Intent = "recommendation"
	// Explanation queries ask what something is or how it works.
	Explanation Intent = "explanation"
	// Strategy queries ask how to beat or clear something.
	Strategy Intent = "strategy"
	// Comparison queries weigh two or more options against each other.
	Comparison Intent = "comparison"
	// Location queries ask where something is or how to reach it.
	// No default pattern targets it; it exists for external pattern tables.
	Location Intent = "location"
	// Build queries ask for loadout or equipment combinations.
	Build Intent = "build"
	// Unlock queries ask how to obtain or unlock something.
	Unlock Intent = "unlock"
	// General is the fallback when no pattern scores above zero.
	General Intent = "general"
)

// Pattern is one static intent-recognition rule: an intent label, its
// trigger keywords, its regex patterns, and a weight multiplier.
type Pattern struct {
	Intent   Intent
	Keywords []string
	Patterns []*regexp.Regexp
	Weight   float64
}

// mustPatterns compiles case-insensitive regexes at startup.
func mustPatterns(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		compiled[i] = regexp.MustCompile(`(?i)` + e)
	}
	return compiled
}

// DefaultPatterns returns the built-in intent pattern table. Slice order
// is the evaluation priority: when two patterns accumulate equal scores,
// the one earlier in this slice wins.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Intent: Recommendation,
			Keywords: []string{
				"推荐", "选择", "选哪个", "下一个", "下个", "应该", "最好", "最强",
				"recommend", "choice", "next", "should", "best", "which",
			},
			Patterns: mustPatterns(
				`(推荐|建议).*(选择|选哪个)`,
				`下[一个]?.*选`,
				`(解锁|买)了.*下[一个]?`,
				`which.*next`,
				`what.*after`,
				`recommend.*after`,
			),
			Weight: 1.5,
		},
		{
			Intent: Explanation,
			Keywords: []string{
				"是什么", "什么是", "介绍", "explain", "what is", "introduction",
			},
			Patterns: mustPatterns(
				`.*是什么`,
				`什么是.*`,
				`介绍一下.*`,
				`what\s+is\s+`,
				`explain\s+`,
			),
			Weight: 1.2,
		},
		{
			Intent: Strategy,
			Keywords: []string{
				"怎么打", "如何击败", "攻略", "打法", "strategy", "how to beat", "defeat",
			},
			Patterns: mustPatterns(
				`(怎么|如何).*(打|击败|通关)`,
				`.*攻略`,
				`how\s+to\s+(beat|defeat)`,
				`strategy\s+for`,
			),
			Weight: 1.3,
		},
		{
			Intent: Comparison,
			Keywords: []string{
				"哪个好", "哪个更", "对比", "比较", "区别",
				"which better", "compare", "difference", "vs",
			},
			Patterns: mustPatterns(
				`哪个.*(好|强|优)`,
				`.*对比|比较`,
				`.*区别`,
				`which.*better`,
				`.*vs\.*`,
				`compare\s+`,
			),
			Weight: 1.4,
		},
		{
			Intent: Build,
			Keywords: []string{
				"配装", "装备", "搭配", "build", "loadout", "equipment",
			},
			Patterns: mustPatterns(
				`.*配装`,
				`装备.*搭配`,
				`.*build`,
				`loadout\s+for`,
			),
			Weight: 1.3,
		},
		{
			Intent: Unlock,
			Keywords: []string{
				"解锁", "获得", "获取", "unlock", "obtain", "get",
			},
			Patterns: mustPatterns(
				`(如何|怎么).*(解锁|获得)`,
				`.*解锁条件`,
				`how\s+to\s+(unlock|get|obtain)`,
				`unlock\s+requirements?`,
			),
			Weight: 1.2,
		},
	}
}
