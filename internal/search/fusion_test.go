package search

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultFixture(id string, score float64) *Result {
	return &Result{
		Chunk: &Chunk{ID: id, Topic: "topic " + id},
		Score: score,
	}
}

func TestRRFFusionScores(t *testing.T) {
	// Given k=1 and a chunk ranked 1st in vector and 2nd in bm25
	f := NewFuser(FusionRRF, 0.6, 0.4, 1, slog.Default())

	vector := []*Result{
		resultFixture("A", 0.9),
		resultFixture("B", 0.7),
	}
	bm25 := []*Result{
		resultFixture("C", 12.0),
		resultFixture("A", 8.0),
	}

	// When fusing
	fused := f.Fuse(vector, bm25)

	// Then A scores 1/(1+1) + 1/(1+2)
	require.Len(t, fused, 3)
	assert.Equal(t, "A", fused[0].Chunk.ID)
	assert.InDelta(t, 1.0/2.0+1.0/3.0, fused[0].Score, 1e-9)

	// C (rank 1 in bm25 only) scores 1/2, B (rank 2 in vector only) 1/3
	assert.Equal(t, "C", fused[1].Chunk.ID)
	assert.InDelta(t, 1.0/2.0, fused[1].Score, 1e-9)
	assert.Equal(t, "B", fused[2].Chunk.ID)
	assert.InDelta(t, 1.0/3.0, fused[2].Score, 1e-9)

	// Provenance survives fusion
	assert.InDelta(t, 0.9, fused[0].VectorScore, 1e-9)
	assert.InDelta(t, 8.0, fused[0].BM25Score, 1e-9)
}

func TestRRFFusionDeterministicTieBreak(t *testing.T) {
	f := NewFuser(FusionRRF, 0.6, 0.4, 60, slog.Default())

	// Two chunks with identical ranks in opposite branches tie exactly;
	// the stable sort keeps the vector branch's entry first.
	vector := []*Result{resultFixture("zeta", 0.9)}
	bm25 := []*Result{resultFixture("alpha", 5.0)}

	fused := f.Fuse(vector, bm25)
	require.Len(t, fused, 2)
	assert.Equal(t, "zeta", fused[0].Chunk.ID)
	assert.Equal(t, "alpha", fused[1].Chunk.ID)
}

func TestWeightedFusion(t *testing.T) {
	f := NewFuser(FusionWeighted, 0.6, 0.4, 60, slog.Default())

	vector := []*Result{resultFixture("A", 0.8)}
	bm25 := []*Result{
		resultFixture("A", 0.5),
		resultFixture("B", 1.0),
	}

	fused := f.Fuse(vector, bm25)
	require.Len(t, fused, 2)

	// A: 0.6*0.8 + 0.4*0.5 = 0.68, B: 0.4*1.0 = 0.40
	assert.Equal(t, "A", fused[0].Chunk.ID)
	assert.InDelta(t, 0.68, fused[0].Score, 1e-9)
	assert.Equal(t, "B", fused[1].Chunk.ID)
	assert.InDelta(t, 0.40, fused[1].Score, 1e-9)
}

func TestNormalizedFusion(t *testing.T) {
	f := NewFuser(FusionNormalized, 0.6, 0.4, 60, slog.Default())

	// bm25 scores on a wildly different scale than vector scores
	vector := []*Result{
		resultFixture("A", 0.9),
		resultFixture("B", 0.5),
	}
	bm25 := []*Result{
		resultFixture("B", 20.0),
		resultFixture("C", 4.0),
	}

	fused := f.Fuse(vector, bm25)
	require.Len(t, fused, 3)

	// After min-max: vector A=1 B=0, bm25 B=1 C=0.
	// A: 0.6*1 = 0.6; B: 0.6*0 + 0.4*1 = 0.4; C: 0.
	assert.Equal(t, "A", fused[0].Chunk.ID)
	assert.InDelta(t, 0.6, fused[0].Score, 1e-9)
	assert.Equal(t, "B", fused[1].Chunk.ID)
	assert.InDelta(t, 0.4, fused[1].Score, 1e-9)
	assert.Equal(t, "C", fused[2].Chunk.ID)
	assert.InDelta(t, 0.0, fused[2].Score, 1e-9)
}

func TestNormalizedFusionConstantList(t *testing.T) {
	f := NewFuser(FusionNormalized, 0.6, 0.4, 60, slog.Default())

	// A single-element list has zero span and keeps full weight
	vector := []*Result{resultFixture("A", 0.42)}
	fused := f.Fuse(vector, nil)

	require.Len(t, fused, 1)
	assert.InDelta(t, 0.6, fused[0].Score, 1e-9)
}

func TestUnknownMethodFallsBackToNormalized(t *testing.T) {
	f := NewFuser("cosine", 0.6, 0.4, 60, slog.Default())
	assert.Equal(t, FusionNormalized, f.Method())
}

func TestFuseEmptyInputs(t *testing.T) {
	f := NewFuser(FusionRRF, 0.6, 0.4, 60, slog.Default())

	fused := f.Fuse(nil, nil)
	assert.NotNil(t, fused)
	assert.Empty(t, fused)
}

func TestFuseDoesNotMutateInputs(t *testing.T) {
	f := NewFuser(FusionRRF, 0.6, 0.4, 60, slog.Default())

	vector := []*Result{resultFixture("A", 0.9)}
	bm25 := []*Result{resultFixture("A", 7.0)}

	_ = f.Fuse(vector, bm25)

	assert.InDelta(t, 0.9, vector[0].Score, 1e-9)
	assert.InDelta(t, 7.0, bm25[0].Score, 1e-9)
}
