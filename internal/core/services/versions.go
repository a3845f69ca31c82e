package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driving"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// Ensure VersionService implements the interface.
var _ driving.VersionService = (*VersionService)(nil)

// VersionService manages saved index versions.
type VersionService struct {
	index driven.VectorIndex
}

// NewVersionService creates a new version service.
func NewVersionService(index driven.VectorIndex) *VersionService {
	return &VersionService{index: index}
}

// Versions lists saved versions, newest first.
func (s *VersionService) Versions(ctx context.Context) ([]domain.IndexVersion, error) {
	versions, err := s.index.Versions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

// Use makes a named version current.
func (s *VersionService) Use(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: version name is required", domain.ErrInvalidInput)
	}
	if err := s.index.LoadIndex(ctx, name); err != nil {
		return fmt.Errorf("load version %s: %w", name, err)
	}
	logger.Info("Using index version %s", name)
	return nil
}

// UseLatest makes the newest saved version current.
func (s *VersionService) UseLatest(ctx context.Context) error {
	if err := s.index.LoadLatestIndex(ctx); err != nil {
		return fmt.Errorf("load latest version: %w", err)
	}
	logger.Info("Using index version %q", s.index.Current().Name())
	return nil
}

// Prune removes old versions beyond keep.
func (s *VersionService) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("%w: keep must be at least 1", domain.ErrInvalidInput)
	}
	removed, err := s.index.Prune(ctx, keep)
	if err != nil {
		return nil, fmt.Errorf("prune versions: %w", err)
	}
	return removed, nil
}
