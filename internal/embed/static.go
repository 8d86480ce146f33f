// Package embed provides text embedding for the vector branch. The
// static embedder is hash-based: deterministic, offline, no model
// download, at the cost of semantic quality.
package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// Dimensions is the static embedding width.
const Dimensions = 256

// Embedder turns text into a fixed-width vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Component weights for vector generation.
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// latinToken matches alphanumeric sequences; CJK text is handled
// separately since it has no word boundaries.
var latinToken = regexp.MustCompile(`[a-zA-Z0-9]+`)

// StaticEmbedder generates embeddings by hashing tokens and character
// n-grams into a fixed-width vector.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

// NewStaticEmbedder creates a static embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed generates a unit-length embedding for text. Empty input maps to
// the zero vector.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, fmt.Errorf("embedder is closed")
	}
	e.mu.RUnlock()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, Dimensions), nil
	}

	vector := make([]float32, Dimensions)

	for _, token := range tokenize(trimmed) {
		vector[hashToIndex(token)] += tokenWeight
	}
	for _, ngram := range extractNgrams(normalizeForNgrams(trimmed), ngramSize) {
		vector[hashToIndex(ngram)] += ngramWeight
	}

	return normalizeVector(vector), nil
}

// tokenize splits latin words on boundaries and emits CJK text as
// single runes plus bigrams, so adjacent-character phrases still match.
func tokenize(text string) []string {
	var tokens []string

	for _, word := range latinToken.FindAllString(text, -1) {
		tokens = append(tokens, strings.ToLower(word))
	}

	var cjk []rune
	flush := func() {
		for i, r := range cjk {
			tokens = append(tokens, string(r))
			if i > 0 {
				tokens = append(tokens, string(cjk[i-1:i+1]))
			}
		}
		cjk = cjk[:0]
	}
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			cjk = append(cjk, r)
		} else if len(cjk) > 0 {
			flush()
		}
	}
	flush()

	return tokens
}

// normalizeForNgrams keeps letters and digits only, lowercased.
func normalizeForNgrams(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// extractNgrams extracts n-byte sliding windows.
func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return []string{}
	}
	ngrams := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		ngrams = append(ngrams, text[i:i+n])
	}
	return ngrams
}

// hashToIndex maps a string onto a vector index via FNV-64.
func hashToIndex(s string) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(Dimensions))
}

// normalizeVector scales v to unit length. The zero vector stays zero.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
	return v
}

// Dimensions returns the embedding width.
func (e *StaticEmbedder) Dimensions() int {
	return Dimensions
}

// Close releases resources.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

var _ Embedder = (*StaticEmbedder)(nil)
