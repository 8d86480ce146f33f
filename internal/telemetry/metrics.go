// Package telemetry accumulates per-query performance metrics for the
// retrieval engine. All data stays local: a bounded in-memory ring plus an
// optional SQLite aggregate store for offline analysis.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// RingCapacity is how many recent metric records are retained. On
// overflow the oldest record is dropped first.
const RingCapacity = 1000

// SearchMetrics is one record per served query.
type SearchMetrics struct {
	QueryTime      time.Duration `json:"query_time"`
	VectorTime     time.Duration `json:"vector_search_time"`
	BM25Time       time.Duration `json:"bm25_search_time"`
	FusionTime     time.Duration `json:"fusion_time"`
	CacheHit       bool          `json:"cache_hit"`
	ResultCount    int           `json:"result_count"`
	DetectedIntent string        `json:"detected_intent,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}

// =============================================================================
// Ring Buffer
// =============================================================================

// Ring is a fixed-capacity FIFO buffer.
type Ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int
	size     int
	capacity int
}

// NewRing creates a ring buffer with the given capacity.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = RingCapacity
	}
	return &Ring[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add appends an item, dropping the oldest when full.
func (r *Ring[T]) Add(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.head] = item
	r.head = (r.head + 1) % r.capacity
	if r.size < r.capacity {
		r.size++
	}
}

// Items returns the buffered items oldest first.
func (r *Ring[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		return []T{}
	}
	out := make([]T, r.size)
	if r.size < r.capacity {
		copy(out, r.items[:r.size])
	} else {
		copy(out, r.items[r.head:])
		copy(out[r.capacity-r.head:], r.items[:r.head])
	}
	return out
}

// Size returns the current item count.
func (r *Ring[T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// =============================================================================
// Monitor
// =============================================================================

// Statistics is an aggregate snapshot over the retained ring plus
// process-lifetime counters.
type Statistics struct {
	TotalQueries  int64         `json:"total_queries"`
	CacheHitRate  float64       `json:"cache_hit_rate"`
	AvgQueryTime  time.Duration `json:"avg_query_time"`
	AvgVectorTime time.Duration `json:"avg_vector_search_time"`
	AvgBM25Time   time.Duration `json:"avg_bm25_search_time"`
	AvgFusionTime time.Duration `json:"avg_fusion_time"`
	RecentRecords int           `json:"recent_metrics_count"`
}

// Monitor retains a bounded history of SearchMetrics and exposes
// aggregates. It owns its mutable state behind its own lock and is the
// only writer of it.
type Monitor struct {
	mu           sync.Mutex
	ring         *Ring[SearchMetrics]
	totalQueries int64
	cacheHits    int64
}

// NewMonitor creates a monitor with the standard ring capacity.
func NewMonitor() *Monitor {
	return NewMonitorWithCapacity(RingCapacity)
}

// NewMonitorWithCapacity creates a monitor with a custom ring capacity.
func NewMonitorWithCapacity(capacity int) *Monitor {
	return &Monitor{ring: NewRing[SearchMetrics](capacity)}
}

// Record appends one metric record, stamping it if unstamped.
func (m *Monitor) Record(metric SearchMetrics) {
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.totalQueries++
	if metric.CacheHit {
		m.cacheHits++
	}
	m.mu.Unlock()

	m.ring.Add(metric)
}

// Statistics returns arithmetic means over the retained records and the
// lifetime cache-hit rate.
func (m *Monitor) Statistics() Statistics {
	m.mu.Lock()
	total := m.totalQueries
	hits := m.cacheHits
	m.mu.Unlock()

	stats := Statistics{TotalQueries: total}
	if total > 0 {
		stats.CacheHitRate = float64(hits) / float64(total)
	}

	items := m.ring.Items()
	stats.RecentRecords = len(items)
	if len(items) == 0 {
		return stats
	}

	var query, vector, bm25, fusion time.Duration
	for _, it := range items {
		query += it.QueryTime
		vector += it.VectorTime
		bm25 += it.BM25Time
		fusion += it.FusionTime
	}
	n := time.Duration(len(items))
	stats.AvgQueryTime = query / n
	stats.AvgVectorTime = vector / n
	stats.AvgBM25Time = bm25 / n
	stats.AvgFusionTime = fusion / n
	return stats
}

// exportPayload is the serialized shape of the full monitor state.
type exportPayload struct {
	TotalQueries int64           `json:"total_queries"`
	CacheHits    int64           `json:"cache_hits"`
	Metrics      []SearchMetrics `json:"metrics"`
}

// Export writes the full accumulated state (lifetime counters plus the
// retained ring) as JSON. Write failures are returned to the caller.
func (m *Monitor) Export(w io.Writer) error {
	m.mu.Lock()
	payload := exportPayload{
		TotalQueries: m.totalQueries,
		CacheHits:    m.cacheHits,
	}
	m.mu.Unlock()
	payload.Metrics = m.ring.Items()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	return nil
}

// ExportFile serializes the monitor state to a file path.
func (m *Monitor) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := m.Export(f); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync metrics file: %w", err)
	}
	return nil
}
