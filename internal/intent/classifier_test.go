package intent

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		{
			name:  "warbond recommendation",
			query: "best warbond recommendations guide",
			want:  Recommendation,
		},
		{
			name:  "strategy english",
			query: "how to beat the bile titan",
			want:  Strategy,
		},
		{
			name:  "strategy chinese",
			query: "怎么打 Bile Titan",
			want:  Strategy,
		},
		{
			name:  "explanation",
			query: "what is a stratagem",
			want:  Explanation,
		},
		{
			name:  "comparison",
			query: "railgun vs recoilless rifle which better",
			want:  Comparison,
		},
		{
			name:  "build",
			query: "best anti-tank loadout build",
			want:  Build,
		},
		{
			name:  "unlock chinese",
			query: "如何解锁轨道炮",
			want:  Unlock,
		},
		{
			name:  "no match falls back to general",
			query: "zzzz qqqq",
			want:  General,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, confidence := c.Classify(tt.query)
			assert.Equal(t, tt.want, got)
			if tt.want == General {
				assert.Equal(t, GeneralConfidence, confidence)
			} else {
				assert.Greater(t, confidence, 0.0)
				assert.LessOrEqual(t, confidence, 1.0)
			}
		})
	}
}

func TestClassifier_ConfidenceFormula(t *testing.T) {
	// One keyword and one regex hit on a weight-1.0 pattern scores
	// 0.3 + 0.5 = 0.8, so confidence is 0.4.
	c := NewClassifierWithPatterns([]Pattern{{
		Intent:   Strategy,
		Keywords: []string{"defeat"},
		Patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)how\s+to`)},
		Weight:   1.0,
	}})

	got, confidence := c.Classify("how to defeat the charger")
	assert.Equal(t, Strategy, got)
	assert.InDelta(t, 0.4, confidence, 1e-9)
}

func TestClassifier_ConfidenceClamped(t *testing.T) {
	c := NewClassifierWithPatterns([]Pattern{{
		Intent:   Build,
		Keywords: []string{"alpha", "beta", "gamma", "delta"},
		Weight:   3.0,
	}})

	// 4 keywords * 0.3 * 3.0 = 3.6 raw, confidence clamps at 1.0.
	_, confidence := c.Classify("alpha beta gamma delta")
	assert.Equal(t, 1.0, confidence)
}

func TestClassifier_TieResolvesToEarlierPattern(t *testing.T) {
	patterns := []Pattern{
		{Intent: Explanation, Keywords: []string{"shared"}, Weight: 1.0},
		{Intent: Strategy, Keywords: []string{"shared"}, Weight: 1.0},
	}
	c := NewClassifierWithPatterns(patterns)

	got, _ := c.Classify("shared term")
	assert.Equal(t, Explanation, got)
}

func TestClassifier_Deterministic(t *testing.T) {
	c := NewClassifier()

	first, firstConf := c.Classify("best warbond recommendations guide")
	for i := 0; i < 10; i++ {
		got, confidence := c.Classify("best warbond recommendations guide")
		require.Equal(t, first, got)
		require.Equal(t, firstConf, confidence)
	}
}

func TestClassifier_EmptyQuery(t *testing.T) {
	c := NewClassifier()

	got, confidence := c.Classify("   ")
	assert.Equal(t, General, got)
	assert.Equal(t, GeneralConfidence, confidence)
}
