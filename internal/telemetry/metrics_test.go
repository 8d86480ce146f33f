package telemetry

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingFIFOOrder(t *testing.T) {
	r := NewRing[int](3)

	// Given more items than capacity
	for i := 1; i <= 5; i++ {
		r.Add(i)
	}

	// Then only the newest capacity items remain, oldest first
	assert.Equal(t, 3, r.Size())
	assert.Equal(t, []int{3, 4, 5}, r.Items())
}

func TestRingPartialFill(t *testing.T) {
	r := NewRing[string](4)
	r.Add("a")
	r.Add("b")

	assert.Equal(t, 2, r.Size())
	assert.Equal(t, []string{"a", "b"}, r.Items())
}

func TestRingEmpty(t *testing.T) {
	r := NewRing[int](4)
	assert.Empty(t, r.Items())
	assert.Equal(t, 0, r.Size())
}

func TestMonitorStatistics(t *testing.T) {
	m := NewMonitor()

	m.Record(SearchMetrics{
		QueryTime:  100 * time.Millisecond,
		VectorTime: 40 * time.Millisecond,
		BM25Time:   30 * time.Millisecond,
		FusionTime: 10 * time.Millisecond,
		CacheHit:   false,
	})
	m.Record(SearchMetrics{
		QueryTime:  300 * time.Millisecond,
		VectorTime: 120 * time.Millisecond,
		BM25Time:   90 * time.Millisecond,
		FusionTime: 30 * time.Millisecond,
		CacheHit:   true,
	})

	stats := m.Statistics()
	assert.Equal(t, int64(2), stats.TotalQueries)
	assert.InDelta(t, 0.5, stats.CacheHitRate, 1e-9)
	assert.Equal(t, 200*time.Millisecond, stats.AvgQueryTime)
	assert.Equal(t, 80*time.Millisecond, stats.AvgVectorTime)
	assert.Equal(t, 60*time.Millisecond, stats.AvgBM25Time)
	assert.Equal(t, 20*time.Millisecond, stats.AvgFusionTime)
	assert.Equal(t, 2, stats.RecentRecords)
}

func TestMonitorEmptyStatistics(t *testing.T) {
	m := NewMonitor()
	stats := m.Statistics()

	assert.Equal(t, int64(0), stats.TotalQueries)
	assert.Zero(t, stats.CacheHitRate)
	assert.Zero(t, stats.AvgQueryTime)
}

func TestMonitorRingEviction(t *testing.T) {
	m := NewMonitorWithCapacity(10)

	// Given 25 records in a capacity-10 ring
	for i := 0; i < 25; i++ {
		m.Record(SearchMetrics{QueryTime: time.Duration(i) * time.Millisecond})
	}

	// Then lifetime counters see all of them but only 10 are retained
	stats := m.Statistics()
	assert.Equal(t, int64(25), stats.TotalQueries)
	assert.Equal(t, 10, stats.RecentRecords)
	// Mean over the surviving window 15..24
	assert.Equal(t, 19500*time.Microsecond, stats.AvgQueryTime)
}

func TestMonitorExport(t *testing.T) {
	m := NewMonitor()
	m.Record(SearchMetrics{
		QueryTime:      50 * time.Millisecond,
		CacheHit:       true,
		ResultCount:    3,
		DetectedIntent: "STRATEGY",
	})

	var buf bytes.Buffer
	require.NoError(t, m.Export(&buf))

	var payload exportPayload
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, int64(1), payload.TotalQueries)
	assert.Equal(t, int64(1), payload.CacheHits)
	require.Len(t, payload.Metrics, 1)
	assert.Equal(t, "STRATEGY", payload.Metrics[0].DetectedIntent)
	assert.False(t, payload.Metrics[0].Timestamp.IsZero())
}

func TestMonitorConcurrentRecord(t *testing.T) {
	m := NewMonitor()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.Record(SearchMetrics{QueryTime: time.Millisecond, CacheHit: i%2 == 0})
			}
		}()
	}
	wg.Wait()

	stats := m.Statistics()
	assert.Equal(t, int64(400), stats.TotalQueries)
	assert.Equal(t, 400, stats.RecentRecords)
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{5 * time.Millisecond, LatencyUnder10ms},
		{10 * time.Millisecond, Latency10to50ms},
		{75 * time.Millisecond, Latency50to100ms},
		{200 * time.Millisecond, Latency100to500ms},
		{2 * time.Second, LatencyOver500ms},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFor(tt.d), "duration %v", tt.d)
	}
}
