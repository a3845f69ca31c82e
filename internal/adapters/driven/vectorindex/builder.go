package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure Builder implements the interface.
var _ driven.IndexBuilder = (*Builder)(nil)

var errBuilderClosed = errors.New("vectorindex: builder already saved or discarded")

// Builder accumulates one unpublished version. It holds the index build
// slot until Save succeeds or Discard is called.
type Builder struct {
	idx       *Index
	name      string
	createdAt time.Time

	mu      sync.Mutex
	vectors []float32
	chunks  []domain.Chunk
	closed  bool
}

// Name returns the version name the build will be saved under.
func (b *Builder) Name() string {
	return b.name
}

// AddVectors appends vectors and chunks. Nothing is appended on error.
func (b *Builder) AddVectors(vectors [][]float32, chunks []domain.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: %d vectors for %d chunks",
			domain.ErrDimensionMismatch, len(vectors), len(chunks))
	}
	dim := b.idx.dimension
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, i, len(vec), dim)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBuilderClosed
	}
	for _, vec := range vectors {
		b.vectors = append(b.vectors, vec...)
	}
	b.chunks = append(b.chunks, chunks...)
	return nil
}

// TotalCount returns the number of vectors added so far.
func (b *Builder) TotalCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Save persists the build under its name and returns the immutable version.
// The version is not activated.
func (b *Builder) Save(ctx context.Context) (driven.IndexSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBuilderClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := &Version{
		name:      b.name,
		dimension: b.idx.dimension,
		vectors:   b.vectors,
		chunks:    b.chunks,
		createdAt: b.createdAt,
	}
	if err := b.idx.persist(v); err != nil {
		return nil, err
	}

	b.closed = true
	b.idx.releaseBuild()
	return v, nil
}

// Discard abandons the build. Safe to call after Save.
func (b *Builder) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.vectors = nil
	b.chunks = nil
	b.idx.releaseBuild()
}
