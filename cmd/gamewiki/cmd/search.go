package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xiaocao12306/gamewiki-sub002/internal/config"
	"github.com/xiaocao12306/gamewiki-sub002/internal/embed"
	"github.com/xiaocao12306/gamewiki-sub002/internal/search"
	"github.com/xiaocao12306/gamewiki-sub002/internal/store"
	"github.com/xiaocao12306/gamewiki-sub002/internal/telemetry"
)

// batchConcurrency bounds how many batch queries run at once.
const batchConcurrency = 4

type searchOptions struct {
	dataPath  string
	gameID    string
	topK      int
	format    string
	batchPath string
	indexDir  string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed wiki content",
		Long: `Search wiki chunks using hybrid retrieval.

The keyword and vector branches run in parallel; their ranked lists
are fused and reranked against the detected query intent.

Examples:
  gamewiki search "怎么打 Bile Titan" --data chunks.json --game helldiver2
  gamewiki search "best warbond" --data chunks.json --format json
  gamewiki search --data chunks.json --batch queries.txt`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.batchPath == "" {
				return fmt.Errorf("provide a query or --batch file")
			}
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "Chunk data file (JSON array, required)")
	cmd.Flags().StringVarP(&opts.gameID, "game", "g", "", "Game ID for keyword profile (e.g. helldiver2)")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 0, "Number of results (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVar(&opts.batchPath, "batch", "", "File with one query per line")
	cmd.Flags().StringVar(&opts.indexDir, "index-dir", "", "Persist the keyword index under this directory")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	chunks, err := loadChunks(opts.dataPath)
	if err != nil {
		return err
	}

	engine, monitor, cleanup, err := buildEngine(ctx, cfg, chunks, opts.indexDir)
	if err != nil {
		return err
	}
	defer cleanup()

	searchOpts := search.Options{TopK: opts.topK, GameID: opts.gameID}

	if opts.batchPath != "" {
		if err := runBatch(ctx, cmd, engine, opts, searchOpts); err != nil {
			return err
		}
	} else {
		resp, err := engine.Search(ctx, query, searchOpts)
		if err != nil {
			return err
		}
		if err := printResponse(cmd, query, resp, opts.format); err != nil {
			return err
		}
	}

	flushTelemetry(cfg, monitor)
	return nil
}

// buildEngine loads the chunk corpus into both branches and wires the
// pipeline over them.
func buildEngine(ctx context.Context, cfg *config.Config, chunks []*search.Chunk, indexDir string) (*search.Engine, *telemetry.Monitor, func(), error) {
	bm25, err := store.NewBleveIndex(indexDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open keyword index: %w", err)
	}

	vector, err := store.NewVectorIndex(embed.NewStaticEmbedder())
	if err != nil {
		_ = bm25.Close()
		return nil, nil, nil, fmt.Errorf("open vector index: %w", err)
	}

	cleanup := func() {
		_ = vector.Close()
		_ = bm25.Close()
	}

	start := time.Now()
	if err := bm25.Index(ctx, chunks); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("index chunks (keyword): %w", err)
	}
	if err := vector.Index(ctx, chunks); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("index chunks (vector): %w", err)
	}
	slog.Debug("chunks indexed",
		slog.Int("count", len(chunks)),
		slog.Duration("elapsed", time.Since(start)))

	engine, err := search.NewEngine(vector, bm25, cfg.EngineConfig(), slog.Default())
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	fullCleanup := func() {
		_ = engine.Close()
		cleanup()
	}
	return engine, engine.Monitor(), fullCleanup, nil
}

func loadChunks(path string) ([]*search.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunk data: %w", err)
	}
	var chunks []*search.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parse chunk data %s: %w", path, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunk data %s is empty", path)
	}
	return chunks, nil
}

// runBatch executes one query per line from the batch file, a bounded
// number at a time. Output order follows completion; each block is
// written atomically.
func runBatch(ctx context.Context, cmd *cobra.Command, engine *search.Engine, opts searchOptions, searchOpts search.Options) error {
	f, err := os.Open(opts.batchPath)
	if err != nil {
		return fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read batch file: %w", err)
	}

	var outMu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for _, q := range queries {
		g.Go(func() error {
			resp, err := engine.Search(ctx, q, searchOpts)
			if err != nil {
				return fmt.Errorf("query %q: %w", q, err)
			}
			outMu.Lock()
			defer outMu.Unlock()
			return printResponse(cmd, q, resp, opts.format)
		})
	}
	return g.Wait()
}

func printResponse(cmd *cobra.Command, query string, resp *search.Response, format string) error {
	out := cmd.OutOrStdout()

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query string `json:"query"`
			*search.Response
		}{Query: query, Response: resp})
	}

	fmt.Fprintf(out, "Query: %s\n", query)
	if resp.Intent != "" {
		fmt.Fprintf(out, "Intent: %s (confidence %.2f)\n", resp.Intent, resp.Confidence)
	}
	if resp.CacheHit {
		fmt.Fprintln(out, "Served from cache")
	}
	if len(resp.Results) == 0 {
		fmt.Fprintln(out, "No results")
		return nil
	}
	for i, r := range resp.Results {
		fmt.Fprintf(out, "%2d. %-40s score=%.4f\n", i+1, r.Chunk.Topic, r.Score)
		if r.Chunk.Summary != "" {
			fmt.Fprintf(out, "    %s\n", r.Chunk.Summary)
		}
	}
	fmt.Fprintln(out)
	return nil
}

// flushTelemetry persists aggregate metrics when a telemetry store is
// configured. Failures are logged, never fatal.
func flushTelemetry(cfg *config.Config, monitor *telemetry.Monitor) {
	if cfg.Telemetry.DBPath == "" {
		return
	}
	ts, err := telemetry.OpenStore(cfg.Telemetry.DBPath)
	if err != nil {
		slog.Warn("open telemetry store failed", slog.Any("error", err))
		return
	}
	defer ts.Close()

	if err := ts.Flush(monitor, time.Now().Format("2006-01-02")); err != nil {
		slog.Warn("flush telemetry failed", slog.Any("error", err))
	}
}
