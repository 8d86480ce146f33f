package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// LatencyBucket labels one bin of the query latency histogram.
type LatencyBucket string

const (
	LatencyUnder10ms  LatencyBucket = "<10ms"
	Latency10to50ms   LatencyBucket = "10-50ms"
	Latency50to100ms  LatencyBucket = "50-100ms"
	Latency100to500ms LatencyBucket = "100-500ms"
	LatencyOver500ms  LatencyBucket = ">500ms"
)

// BucketFor maps a query duration onto its histogram bucket.
func BucketFor(d time.Duration) LatencyBucket {
	switch {
	case d < 10*time.Millisecond:
		return LatencyUnder10ms
	case d < 50*time.Millisecond:
		return Latency10to50ms
	case d < 100*time.Millisecond:
		return Latency50to100ms
	case d < 500*time.Millisecond:
		return Latency100to500ms
	default:
		return LatencyOver500ms
	}
}

// Store persists daily search telemetry aggregates to SQLite. Only
// aggregate counts leave memory, never query text with results attached.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the telemetry database at path and
// ensures the schema exists.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	-- Intent frequency (aggregated daily)
	CREATE TABLE IF NOT EXISTS intent_stats (
		date TEXT NOT NULL,
		intent TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, intent)
	);

	-- Latency histogram (buckets: <10ms, 10-50ms, 50-100ms, 100-500ms, >500ms)
	CREATE TABLE IF NOT EXISTS latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// SaveIntentCounts upserts daily intent counts.
func (s *Store) SaveIntentCounts(date string, counts map[string]int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO intent_stats (date, intent, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, intent) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for intent, count := range counts {
		if _, err := stmt.Exec(date, intent, count); err != nil {
			return fmt.Errorf("insert intent count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetIntentCounts retrieves summed intent counts for a date range.
func (s *Store) GetIntentCounts(from, to string) (map[string]int64, error) {
	rows, err := s.db.Query(`
		SELECT intent, SUM(count) as total
		FROM intent_stats
		WHERE date >= ? AND date <= ?
		GROUP BY intent
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query intent counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var intent string
		var count int64
		if err := rows.Scan(&intent, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[intent] = count
	}
	return counts, rows.Err()
}

// SaveLatencyCounts upserts daily latency histogram counts.
func (s *Store) SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO latency_stats (date, bucket, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, bucket) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for bucket, count := range counts {
		if _, err := stmt.Exec(date, string(bucket), count); err != nil {
			return fmt.Errorf("insert latency count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetLatencyCounts retrieves the latency distribution for a date range.
func (s *Store) GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error) {
	rows, err := s.db.Query(`
		SELECT bucket, SUM(count) as total
		FROM latency_stats
		WHERE date >= ? AND date <= ?
		GROUP BY bucket
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query latency counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[LatencyBucket]int64)
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[LatencyBucket(bucket)] = count
	}
	return counts, rows.Err()
}

// Flush aggregates the monitor ring into the store under today's date.
func (s *Store) Flush(m *Monitor, date string) error {
	intents := make(map[string]int64)
	latencies := make(map[LatencyBucket]int64)
	for _, rec := range m.ring.Items() {
		if rec.DetectedIntent != "" {
			intents[rec.DetectedIntent]++
		}
		latencies[BucketFor(rec.QueryTime)]++
	}

	if err := s.SaveIntentCounts(date, intents); err != nil {
		return err
	}
	return s.SaveLatencyCounts(date, latencies)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
