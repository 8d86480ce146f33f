// Package store holds the two index adapters behind the retrieval
// branches: a Bleve keyword index and an HNSW vector index. Both speak
// the same Search interface so the coordinator treats them uniformly.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/xiaocao12306/gamewiki-sub002/internal/search"
)

// bleveChunk is the indexed document shape. All fields are stored so
// hits can be rebuilt into chunks without a side lookup.
type bleveChunk struct {
	Topic    string `json:"topic"`
	Summary  string `json:"summary"`
	Keywords string `json:"keywords"`
	Content  string `json:"content"`
	GameID   string `json:"game_id"`
}

// BleveIndex is the keyword retrieval branch backed by Bleve BM25.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

// NewBleveIndex creates or opens a keyword index. An empty path keeps
// the index in memory, used by tests.
func NewBleveIndex(path string) (*BleveIndex, error) {
	indexMapping := createChunkMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0755); mkErr != nil {
			return nil, fmt.Errorf("create index directory: %w", mkErr)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open keyword index: %w", err)
	}

	return &BleveIndex{index: idx}, nil
}

// createChunkMapping builds the index mapping. The CJK analyzer bigrams
// Han text so Chinese queries match without word boundaries.
func createChunkMapping() *mapping.IndexMappingImpl {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = cjk.AnalyzerName

	keyword := bleve.NewTextFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("topic", text)
	doc.AddFieldMappingsAt("summary", text)
	doc.AddFieldMappingsAt("keywords", text)
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("game_id", keyword)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = cjk.AnalyzerName
	indexMapping.DefaultMapping = doc
	return indexMapping
}

// Index adds chunks to the keyword index in one batch.
func (b *BleveIndex) Index(ctx context.Context, chunks []*search.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, c := range chunks {
		doc := bleveChunk{
			Topic:    c.Topic,
			Summary:  c.Summary,
			Keywords: strings.Join(c.Keywords, " "),
			Content:  c.Content,
			GameID:   c.GameID,
		}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("execute batch: %w", err)
	}
	return nil
}

// Search runs a match query over all chunk fields, topic boosted.
func (b *BleveIndex) Search(ctx context.Context, query string, topK int) ([]*search.Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if strings.TrimSpace(query) == "" {
		return []*search.Result{}, nil
	}

	topicQuery := bleve.NewMatchQuery(query)
	topicQuery.SetField("topic")
	topicQuery.SetBoost(2.0)

	summaryQuery := bleve.NewMatchQuery(query)
	summaryQuery.SetField("summary")

	keywordsQuery := bleve.NewMatchQuery(query)
	keywordsQuery.SetField("keywords")

	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(
		topicQuery, summaryQuery, keywordsQuery, contentQuery))
	req.Size = topK
	req.Fields = []string{"*"}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]*search.Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		chunk := &search.Chunk{
			ID:      hit.ID,
			Topic:   fieldString(hit.Fields, "topic"),
			Summary: fieldString(hit.Fields, "summary"),
			Content: fieldString(hit.Fields, "content"),
			GameID:  fieldString(hit.Fields, "game_id"),
		}
		if kw := fieldString(hit.Fields, "keywords"); kw != "" {
			chunk.Keywords = strings.Fields(kw)
		}
		results = append(results, &search.Result{
			Chunk: chunk,
			Score: hit.Score,
		})
	}
	return results, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

// Count returns the number of indexed chunks.
func (b *BleveIndex) Count() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, fmt.Errorf("index is closed")
	}
	n, err := b.index.DocCount()
	return int(n), err
}

// Close closes the underlying index. Safe to call more than once.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

var _ search.Index = (*BleveIndex)(nil)
