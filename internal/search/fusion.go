package search

import (
	"log/slog"
	"sort"
)

// Fusion method names accepted by Config.FusionMethod.
const (
	FusionRRF        = "rrf"
	FusionWeighted   = "weighted"
	FusionNormalized = "normalized"
)

// DefaultRRFConstant is the standard RRF smoothing parameter.
// k=60 is empirically validated across domains.
const DefaultRRFConstant = 60

// Fuser merges the ranked lists from the vector and keyword branches
// into one deduplicated list.
type Fuser struct {
	method       string
	vectorWeight float64
	bm25Weight   float64
	k            int
	logger       *slog.Logger
}

// NewFuser creates a fuser for the given method. Unknown methods fall
// back to normalized fusion, logged once at construction.
func NewFuser(method string, vectorWeight, bm25Weight float64, k int, logger *slog.Logger) *Fuser {
	if logger == nil {
		logger = slog.Default()
	}
	switch method {
	case FusionRRF, FusionWeighted, FusionNormalized:
	default:
		logger.Warn("unknown fusion method, using normalized fusion",
			slog.String("method", method))
		method = FusionNormalized
	}
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &Fuser{
		method:       method,
		vectorWeight: vectorWeight,
		bm25Weight:   bm25Weight,
		k:            k,
		logger:       logger,
	}
}

// Method returns the effective fusion method after fallback.
func (f *Fuser) Method() string { return f.method }

// Fuse merges both branch lists. Inputs are ranked best first; the
// output is sorted by fused score descending. The sort is stable over
// first-seen order, so equal scores rank the vector branch's entry
// first.
func (f *Fuser) Fuse(vector, bm25 []*Result) []*Result {
	if len(vector) == 0 && len(bm25) == 0 {
		return []*Result{}
	}

	acc := newFusedList(len(vector) + len(bm25))
	switch f.method {
	case FusionRRF:
		f.fuseRRF(acc, vector, bm25)
	case FusionWeighted:
		f.fuseWeighted(acc, vector, bm25)
	default:
		f.fuseNormalized(acc, vector, bm25)
	}

	sort.SliceStable(acc.ordered, func(i, j int) bool {
		return acc.ordered[i].Score > acc.ordered[j].Score
	})
	return acc.ordered
}

// fuseRRF scores each chunk as the sum of 1/(k+rank) over the lists it
// appears in, ranks 1-indexed. Absent lists contribute nothing.
func (f *Fuser) fuseRRF(acc *fusedList, vector, bm25 []*Result) {
	for rank, r := range vector {
		merged := acc.adopt(r)
		merged.VectorScore = r.Score
		merged.Score = 1.0 / float64(f.k+rank+1)
	}
	for rank, r := range bm25 {
		merged := acc.adopt(r)
		merged.BM25Score = r.Score
		merged.Score += 1.0 / float64(f.k+rank+1)
	}
}

// fuseWeighted combines raw branch scores linearly.
func (f *Fuser) fuseWeighted(acc *fusedList, vector, bm25 []*Result) {
	for _, r := range vector {
		merged := acc.adopt(r)
		merged.VectorScore = r.Score
		merged.Score = f.vectorWeight * r.Score
	}
	for _, r := range bm25 {
		merged := acc.adopt(r)
		merged.BM25Score = r.Score
		merged.Score += f.bm25Weight * r.Score
	}
}

// fuseNormalized min-max normalizes each branch to [0,1] before the
// weighted combination, so branches with incompatible score scales
// still contribute proportionally.
func (f *Fuser) fuseNormalized(acc *fusedList, vector, bm25 []*Result) {
	vNorm := normalizeScores(vector)
	bNorm := normalizeScores(bm25)

	for i, r := range vector {
		merged := acc.adopt(r)
		merged.VectorScore = r.Score
		merged.Score = f.vectorWeight * vNorm[i]
	}
	for i, r := range bm25 {
		merged := acc.adopt(r)
		merged.BM25Score = r.Score
		merged.Score += f.bm25Weight * bNorm[i]
	}
}

// normalizeScores maps a list's scores onto [0,1]. A constant list maps
// to all ones so every member keeps full weight.
func normalizeScores(results []*Result) []float64 {
	if len(results) == 0 {
		return nil
	}
	minS, maxS := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < minS {
			minS = r.Score
		}
		if r.Score > maxS {
			maxS = r.Score
		}
	}

	norm := make([]float64, len(results))
	span := maxS - minS
	for i, r := range results {
		if span == 0 {
			norm[i] = 1.0
		} else {
			norm[i] = (r.Score - minS) / span
		}
	}
	return norm
}

// fusedList deduplicates by chunk ID while remembering first-seen
// order, which the final stable sort uses as the tie-break.
type fusedList struct {
	byID    map[string]*Result
	ordered []*Result
}

func newFusedList(capacity int) *fusedList {
	return &fusedList{
		byID:    make(map[string]*Result, capacity),
		ordered: make([]*Result, 0, capacity),
	}
}

// adopt returns the merged entry for r's chunk, creating it from a
// copy of r on first sight. Scores on the copy are reset so callers
// accumulate from zero.
func (l *fusedList) adopt(r *Result) *Result {
	if existing, ok := l.byID[r.Chunk.ID]; ok {
		return existing
	}
	cp := r.clone()
	cp.Score = 0
	cp.VectorScore = 0
	cp.BM25Score = 0
	l.byID[r.Chunk.ID] = cp
	l.ordered = append(l.ordered, cp)
	return cp
}
