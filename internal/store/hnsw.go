package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/coder/hnsw"

	"github.com/xiaocao12306/gamewiki-sub002/internal/embed"
	"github.com/xiaocao12306/gamewiki-sub002/internal/search"
)

// VectorIndex is the semantic retrieval branch: chunks are embedded at
// index time and queries are answered by approximate nearest neighbour
// search over an HNSW graph.
type VectorIndex struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[string]
	chunks   map[string]*search.Chunk
	embedder embed.Embedder
	closed   bool
}

// NewVectorIndex creates a vector index over the given embedder.
func NewVectorIndex(embedder embed.Embedder) (*VectorIndex, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	graph := hnsw.NewGraph[string]()
	graph.Distance = hnsw.CosineDistance
	graph.M = 16
	graph.EfSearch = 20

	return &VectorIndex{
		graph:    graph,
		chunks:   make(map[string]*search.Chunk),
		embedder: embedder,
	}, nil
}

// embedText is what a chunk looks like to the embedder.
func embedText(c *search.Chunk) string {
	parts := []string{c.Topic, c.Summary}
	parts = append(parts, c.Keywords...)
	parts = append(parts, c.Content)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Index embeds and inserts chunks. Re-indexing an existing ID replaces
// its vector.
func (v *VectorIndex) Index(ctx context.Context, chunks []*search.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return fmt.Errorf("index is closed")
	}

	for _, c := range chunks {
		vec, err := v.embedder.Embed(ctx, embedText(c))
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", c.ID, err)
		}
		v.graph.Add(hnsw.MakeNode(c.ID, vec))
		v.chunks[c.ID] = c
	}
	return nil
}

// Search embeds the query and returns the nearest chunks by cosine
// similarity, best first.
func (v *VectorIndex) Search(ctx context.Context, query string, topK int) ([]*search.Result, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if v.graph.Len() == 0 {
		return []*search.Result{}, nil
	}

	queryVec, err := v.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	nodes := v.graph.Search(queryVec, topK)
	results := make([]*search.Result, 0, len(nodes))
	for _, node := range nodes {
		chunk, ok := v.chunks[node.Key]
		if !ok {
			continue
		}
		// Cosine distance spans [0,2]; fold it onto a 0-1 score.
		distance := v.graph.Distance(queryVec, node.Value)
		results = append(results, &search.Result{
			Chunk: chunk,
			Score: float64(1.0 - distance/2.0),
		})
	}
	return results, nil
}

// Count returns the number of indexed chunks.
func (v *VectorIndex) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks)
}

// Close releases the graph. Safe to call more than once.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	v.graph = nil
	return nil
}

var _ search.Index = (*VectorIndex)(nil)
