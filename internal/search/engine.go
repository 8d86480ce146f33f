package search

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xiaocao12306/gamewiki-sub002/internal/cache"
	"github.com/xiaocao12306/gamewiki-sub002/internal/intent"
	"github.com/xiaocao12306/gamewiki-sub002/internal/profile"
	"github.com/xiaocao12306/gamewiki-sub002/internal/query"
	"github.com/xiaocao12306/gamewiki-sub002/internal/telemetry"
)

// Engine orchestrates the full read path: normalize, consult the result
// cache, run both retrieval branches, fuse, rerank against the detected
// intent, and record telemetry.
type Engine struct {
	cfg         Config
	normalizer  *query.Normalizer
	resultCache *cache.Cache[[]*Result]
	coordinator *Coordinator
	fuser       *Fuser
	reranker    *Reranker
	monitor     *telemetry.Monitor
	logger      *slog.Logger

	closeOnce sync.Once
}

// NewEngine wires the pipeline over the two retrieval branches.
func NewEngine(vector, bm25 Index, cfg Config, logger *slog.Logger) (*Engine, error) {
	if vector == nil || bm25 == nil {
		return nil, fmt.Errorf("both retrieval branches are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}

	coordinator, err := NewCoordinator(vector, bm25, cfg.ParallelEnabled, cfg.BranchTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("create coordinator: %w", err)
	}

	e := &Engine{
		cfg:         cfg,
		normalizer:  query.NewNormalizer(),
		coordinator: coordinator,
		fuser:       NewFuser(cfg.FusionMethod, cfg.VectorWeight, cfg.BM25Weight, cfg.RRFConstant, logger),
		reranker:    NewReranker(intent.NewClassifier(), profile.NewRegistry(), cfg.IntentWeight, logger),
		monitor:     telemetry.NewMonitor(),
		logger:      logger,
	}
	if cfg.CacheEnabled {
		e.resultCache = cache.New[[]*Result](cache.Config{
			MaxSize: cfg.CacheSize,
			TTL:     cfg.CacheTTL,
		})
	}
	return e, nil
}

// fingerprint captures the configuration facets that change results, so
// cached entries never outlive a config change.
func (e *Engine) fingerprint(topK int) cache.Fingerprint {
	return cache.Fingerprint{
		FusionMethod: e.fuser.Method(),
		VectorWeight: e.cfg.VectorWeight,
		BM25Weight:   e.cfg.BM25Weight,
		TopK:         topK,
	}
}

// Search executes one query through the pipeline.
func (e *Engine) Search(ctx context.Context, rawQuery string, opts Options) (*Response, error) {
	if rawQuery == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	start := time.Now()

	topK := opts.TopK
	if topK <= 0 {
		topK = e.cfg.TopK
	}

	searchQuery := rawQuery
	if e.cfg.OptimizationEnabled {
		if optimized := e.normalizer.Optimize(rawQuery); optimized != "" {
			searchQuery = optimized
		}
	}

	fp := e.fingerprint(topK)
	if e.resultCache != nil {
		if cached, ok := e.resultCache.Get(searchQuery, fp); ok {
			e.monitor.Record(telemetry.SearchMetrics{
				QueryTime:   time.Since(start),
				CacheHit:    true,
				ResultCount: len(cached),
			})
			e.logger.Debug("cache hit",
				slog.String("query", searchQuery),
				slog.Int("results", len(cached)))
			return &Response{Results: cached, CacheHit: true}, nil
		}
	}

	branches := e.coordinator.Retrieve(ctx, searchQuery, topK)

	fusionStart := time.Now()
	fused := e.fuser.Fuse(branches.Vector, branches.BM25)
	fusionTime := time.Since(fusionStart)

	resp := &Response{}
	results := fused
	var detected intent.Intent
	var confidence float64
	if e.cfg.OptimizationEnabled {
		results, detected, confidence = e.reranker.Rerank(fused, rawQuery, opts.GameID)
		resp.Intent = string(detected)
		resp.Confidence = confidence
	}

	if len(results) > topK {
		results = results[:topK]
	}
	resp.Results = results

	if e.resultCache != nil {
		e.resultCache.Set(searchQuery, fp, results)
	}

	e.monitor.Record(telemetry.SearchMetrics{
		QueryTime:      time.Since(start),
		VectorTime:     branches.VectorTime,
		BM25Time:       branches.BM25Time,
		FusionTime:     fusionTime,
		CacheHit:       false,
		ResultCount:    len(results),
		DetectedIntent: string(detected),
	})

	e.logger.Info("search completed",
		slog.String("query", searchQuery),
		slog.Int("results", len(results)),
		slog.Duration("elapsed", time.Since(start)),
		slog.String("intent", string(detected)))

	return resp, nil
}

// SuggestAlternatives proposes simpler reformulations for queries that
// came back empty.
func (e *Engine) SuggestAlternatives(rawQuery string) []string {
	return e.normalizer.SuggestAlternatives(rawQuery)
}

// PerformanceStats is the engine-level statistics snapshot.
type PerformanceStats struct {
	Performance  telemetry.Statistics `json:"performance"`
	Cache        *cache.Stats         `json:"cache,omitempty"`
	Parallel     bool                 `json:"parallel_enabled"`
	Optimization bool                 `json:"optimization_enabled"`
}

// Stats returns the current performance snapshot.
func (e *Engine) Stats() PerformanceStats {
	stats := PerformanceStats{
		Performance:  e.monitor.Statistics(),
		Parallel:     e.cfg.ParallelEnabled,
		Optimization: e.cfg.OptimizationEnabled,
	}
	if e.resultCache != nil {
		cs := e.resultCache.Snapshot()
		stats.Cache = &cs
	}
	return stats
}

// Monitor exposes the underlying telemetry monitor for export.
func (e *Engine) Monitor() *telemetry.Monitor {
	return e.monitor
}

// ClearCache drops all cached results.
func (e *Engine) ClearCache() {
	if e.resultCache != nil {
		e.resultCache.Clear()
		e.logger.Info("result cache cleared")
	}
}

// Close releases the coordinator's worker pool. Safe to call more than
// once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.coordinator.Close()
		e.logger.Debug("search engine closed")
	})
	return nil
}
