package telemetry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreIntentCounts(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveIntentCounts("2026-08-29", map[string]int64{
		"STRATEGY":       3,
		"RECOMMENDATION": 1,
	}))
	// Upsert accumulates on conflict
	require.NoError(t, s.SaveIntentCounts("2026-08-29", map[string]int64{
		"STRATEGY": 2,
	}))
	require.NoError(t, s.SaveIntentCounts("2026-08-30", map[string]int64{
		"STRATEGY": 1,
	}))

	counts, err := s.GetIntentCounts("2026-08-29", "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, int64(6), counts["STRATEGY"])
	assert.Equal(t, int64(1), counts["RECOMMENDATION"])

	day, err := s.GetIntentCounts("2026-08-30", "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, int64(1), day["STRATEGY"])
}

func TestStoreLatencyCounts(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveLatencyCounts("2026-08-30", map[LatencyBucket]int64{
		LatencyUnder10ms: 5,
		LatencyOver500ms: 1,
	}))
	require.NoError(t, s.SaveLatencyCounts("2026-08-30", map[LatencyBucket]int64{
		LatencyUnder10ms: 2,
	}))

	counts, err := s.GetLatencyCounts("2026-08-30", "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, int64(7), counts[LatencyUnder10ms])
	assert.Equal(t, int64(1), counts[LatencyOver500ms])
}

func TestStoreFlush(t *testing.T) {
	s := newTestStore(t)
	m := NewMonitor()
	m.Record(SearchMetrics{QueryTime: 5 * time.Millisecond, DetectedIntent: "STRATEGY"})
	m.Record(SearchMetrics{QueryTime: 20 * time.Millisecond, DetectedIntent: "STRATEGY"})
	m.Record(SearchMetrics{QueryTime: 700 * time.Millisecond, DetectedIntent: "GENERAL"})

	require.NoError(t, s.Flush(m, "2026-08-30"))

	intents, err := s.GetIntentCounts("2026-08-30", "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, int64(2), intents["STRATEGY"])
	assert.Equal(t, int64(1), intents["GENERAL"])

	lats, err := s.GetLatencyCounts("2026-08-30", "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, int64(1), lats[LatencyUnder10ms])
	assert.Equal(t, int64(1), lats[Latency10to50ms])
	assert.Equal(t, int64(1), lats[LatencyOver500ms])
}
