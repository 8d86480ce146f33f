// Package query provides query normalization and keyword extraction for
// hybrid retrieval. Queries are cleaned into a compact bilingual (zh/en)
// token form before cache lookup and index dispatch.
package query

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxKeywords is the maximum number of keywords extracted from a query.
const MaxKeywords = 5

// MaxAlternatives is the maximum number of alternative phrasings suggested.
const MaxAlternatives = 5

// strippedRunes matches everything outside the permitted character set:
// CJK ideographs, Latin letters, digits, and whitespace. Matches are
// replaced with a single space before tokenization.
var strippedRunes = regexp.MustCompile(`[^\x{4e00}-\x{9fa5}a-zA-Z0-9\s]`)

// stopwords is the bilingual stopword table. Tokens present here are
// dropped during normalization.
var stopwords = map[string]struct{}{}

func init() {
	zh := []string{
		"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都",
		"一", "一个", "上", "也", "很", "到", "说", "要", "去", "你", "会",
		"着", "没有", "看", "好", "自己", "这",
	}
	en := []string{
		"the", "a", "an", "and", "or", "but", "in", "on", "at", "to",
		"for", "of", "with", "by", "from", "as", "is", "was", "are",
		"were", "be", "been", "being", "have", "has", "had", "do",
		"does", "did", "will", "would", "should", "could", "can",
		"may", "might", "must", "shall",
	}
	for _, w := range zh {
		stopwords[w] = struct{}{}
	}
	for _, w := range en {
		stopwords[w] = struct{}{}
	}
}

// Normalizer cleans raw queries into a canonical token form.
// The zero value is ready to use; a single instance is safe for
// concurrent callers since it holds no mutable state.
type Normalizer struct{}

// NewNormalizer creates a query normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Optimize lowercases the query, replaces characters outside the permitted
// set with spaces, drops stopwords and single-rune tokens (digits exempt),
// and rejoins the surviving tokens with single spaces.
//
// Optimize is idempotent: Optimize(Optimize(q)) == Optimize(q).
func (n *Normalizer) Optimize(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	query = strippedRunes.ReplaceAllString(query, " ")

	var kept []string
	for _, tok := range strings.Fields(query) {
		if !keepToken(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// keepToken reports whether a token survives normalization.
// Stopwords are dropped; so are single-rune tokens unless the token is a
// bare digit, which stays searchable (difficulty tiers, version numbers).
func keepToken(tok string) bool {
	if _, ok := stopwords[tok]; ok {
		return false
	}
	if utf8.RuneCountInString(tok) > 1 {
		return true
	}
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsDigit(r)
}

// ExtractKeywords returns up to MaxKeywords tokens from the normalized
// query, longest first. The sort is stable so equal-length tokens keep
// their query order.
func (n *Normalizer) ExtractKeywords(query string) []string {
	optimized := n.Optimize(query)
	if optimized == "" {
		return nil
	}

	keywords := strings.Fields(optimized)
	sort.SliceStable(keywords, func(i, j int) bool {
		return utf8.RuneCountInString(keywords[i]) > utf8.RuneCountInString(keywords[j])
	})

	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}
	return keywords
}

// SuggestAlternatives proposes up to MaxAlternatives rephrasings of the
// query: the top single keywords first, then bigrams of adjacent keywords.
// Queries that normalize to fewer than two keywords get no suggestions.
func (n *Normalizer) SuggestAlternatives(query string) []string {
	keywords := n.ExtractKeywords(query)
	if len(keywords) < 2 {
		return nil
	}

	alternatives := make([]string, 0, MaxAlternatives)
	singles := keywords
	if len(singles) > 3 {
		singles = singles[:3]
	}
	alternatives = append(alternatives, singles...)

	for i := 0; i+1 < len(keywords); i++ {
		alternatives = append(alternatives, keywords[i]+" "+keywords[i+1])
	}

	if len(alternatives) > MaxAlternatives {
		alternatives = alternatives[:MaxAlternatives]
	}
	return alternatives
}
