package vectorindex

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure Version implements the interface.
var _ driven.IndexSnapshot = (*Version)(nil)

// cancelCheckInterval is how many rows are scanned between ctx checks.
const cancelCheckInterval = 1024

// Version is an immutable index version: a flat vector array positionally
// aligned with its chunks.
type Version struct {
	name      string
	dimension int
	vectors   []float32 // len == len(chunks) * dimension
	chunks    []domain.Chunk
	createdAt time.Time
}

func emptyVersion(dimension int) *Version {
	return &Version{dimension: dimension}
}

// Name returns the version name. Empty for the never-saved empty index.
func (v *Version) Name() string {
	return v.name
}

// TotalCount returns the number of vectors.
func (v *Version) TotalCount() int {
	return len(v.chunks)
}

// Dimension returns the vector length.
func (v *Version) Dimension() int {
	return v.dimension
}

// Chunks returns the chunk array. Callers must not modify it.
func (v *Version) Chunks() []domain.Chunk {
	return v.chunks
}

// CreatedAt returns when the version was built.
func (v *Version) CreatedAt() time.Time {
	return v.createdAt
}

// Search returns up to k nearest neighbours by squared L2 distance.
// Ties are broken by position so results are deterministic.
func (v *Version) Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if len(query) != v.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), v.dimension)
	}

	n := v.TotalCount()
	if n == 0 || k <= 0 {
		return []domain.SearchResult{}, nil
	}
	if k > n {
		k = n
	}

	h := make(worstFirst, 0, k)
	for pos := 0; pos < n; pos++ {
		if pos%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		d := v.distance(query, pos)
		if len(h) < k {
			heap.Push(&h, candidate{pos: pos, dist: d})
			continue
		}
		// Positions increase, so an equal distance never displaces.
		if d < h[0].dist {
			h[0] = candidate{pos: pos, dist: d}
			heap.Fix(&h, 0)
		}
	}

	results := make([]domain.SearchResult, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		c := heap.Pop(&h).(candidate)
		dist := c.dist
		results[i] = domain.SearchResult{
			Chunk:    v.chunks[c.pos],
			Score:    dist,
			Rank:     i + 1,
			Distance: &dist,
			Position: c.pos,
		}
	}
	return results, nil
}

// Distance returns the squared L2 distance between query and the vector at position.
func (v *Version) Distance(query []float32, position int) (float64, error) {
	if len(query) != v.dimension {
		return 0, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), v.dimension)
	}
	if position < 0 || position >= v.TotalCount() {
		return 0, fmt.Errorf("%w: position %d out of range", domain.ErrInvalidInput, position)
	}
	return v.distance(query, position), nil
}

func (v *Version) distance(query []float32, pos int) float64 {
	row := v.vectors[pos*v.dimension : (pos+1)*v.dimension]
	var sum float64
	for i, x := range row {
		d := float64(query[i]) - float64(x)
		sum += d * d
	}
	return sum
}

type candidate struct {
	pos  int
	dist float64
}

// worstFirst is a max-heap on (distance, position).
type worstFirst []candidate

func (h worstFirst) Len() int { return len(h) }
func (h worstFirst) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist > h[j].dist
	}
	return h[i].pos > h[j].pos
}
func (h worstFirst) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)   { *h = append(*h, x.(candidate)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
