package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Optimize(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips punctuation and stopwords",
			input: "How to beat the Bile Titan?!",
			want:  "how beat bile titan",
		},
		{
			name:  "lowercases",
			input: "BILE TITAN Weakness",
			want:  "bile titan weakness",
		},
		{
			name:  "bilingual stopwords removed",
			input: "怎么打 胆汁泰坦 的 弱点",
			want:  "怎么打 胆汁泰坦 弱点",
		},
		{
			name:  "single letters dropped, digits kept",
			input: "tier 5 a build",
			want:  "tier 5 build",
		},
		{
			name:  "collapses whitespace",
			input: "  charger    weak   point  ",
			want:  "charger weak point",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "only stopwords",
			input: "the and of",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Optimize(tt.input))
		})
	}
}

func TestNormalizer_OptimizeIdempotent(t *testing.T) {
	n := NewNormalizer()

	inputs := []string{
		"How to beat the Bile Titan?",
		"怎么打 Bile Titan",
		"best warbond recommendations guide",
		"tier 5 difficulty!!!",
		"",
		"   ",
		"the of and",
	}

	for _, in := range inputs {
		once := n.Optimize(in)
		assert.Equal(t, once, n.Optimize(once), "optimize must be idempotent for %q", in)
	}
}

func TestNormalizer_ExtractKeywords(t *testing.T) {
	n := NewNormalizer()

	t.Run("longest first, capped at five", func(t *testing.T) {
		kws := n.ExtractKeywords("best railgun loadout against automaton hulk devastator tank")
		require.LessOrEqual(t, len(kws), MaxKeywords)
		for i := 1; i < len(kws); i++ {
			assert.GreaterOrEqual(t, len([]rune(kws[i-1])), len([]rune(kws[i])))
		}
		assert.Contains(t, kws, "devastator")
	})

	t.Run("stable order for equal lengths", func(t *testing.T) {
		kws := n.ExtractKeywords("hulk tank")
		assert.Equal(t, []string{"hulk", "tank"}, kws)
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Empty(t, n.ExtractKeywords(""))
	})
}

func TestNormalizer_SuggestAlternatives(t *testing.T) {
	n := NewNormalizer()

	t.Run("singles then bigrams", func(t *testing.T) {
		alts := n.SuggestAlternatives("charger weak point")
		require.NotEmpty(t, alts)
		require.LessOrEqual(t, len(alts), MaxAlternatives)
		// Keywords sort longest-first: charger, point, weak.
		assert.Equal(t, "charger", alts[0])
		assert.Contains(t, alts, "charger point")
	})

	t.Run("single keyword yields nothing", func(t *testing.T) {
		assert.Empty(t, n.SuggestAlternatives("charger"))
	})

	t.Run("empty query yields nothing", func(t *testing.T) {
		assert.Empty(t, n.SuggestAlternatives(""))
	})
}
