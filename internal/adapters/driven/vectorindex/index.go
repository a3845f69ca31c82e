package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// LegacyName is the version name of the unversioned pair in the base directory.
const LegacyName = "legacy"

// Index owns the current version and the build slot.
type Index struct {
	baseDir   string
	dimension int
	now       func() time.Time

	current atomic.Pointer[Version]

	mu       sync.Mutex // guards building and lastName
	building bool
	lastName string
}

// Option configures the index.
type Option func(*Index)

// WithClock replaces the clock used to name versions.
func WithClock(now func() time.Time) Option {
	return func(i *Index) {
		if now != nil {
			i.now = now
		}
	}
}

// New creates an index rooted at baseDir with an empty current version.
// Nothing is read from disk until LoadIndex or LoadLatestIndex is called.
func New(baseDir string, dimension int, opts ...Option) (*Index, error) {
	if baseDir == "" {
		return nil, errors.New("vectorindex: base directory cannot be empty")
	}
	if dimension <= 0 {
		return nil, errors.New("vectorindex: dimension must be positive")
	}

	idx := &Index{
		baseDir:   baseDir,
		dimension: dimension,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.current.Store(emptyVersion(dimension))
	return idx, nil
}

// BaseDir returns the directory holding the versions.
func (i *Index) BaseDir() string {
	return i.baseDir
}

// Dimension returns the configured vector length.
func (i *Index) Dimension() int {
	return i.dimension
}

// Current returns the version queries should use.
func (i *Index) Current() driven.IndexSnapshot {
	return i.current.Load()
}

// CreateNewIndex starts a build under a fresh timestamp-derived name.
func (i *Index) CreateNewIndex() (driven.IndexBuilder, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.building {
		return nil, domain.ErrIndexingInProgress
	}

	t := i.now().UTC()
	name := versionName(t)
	for name <= i.lastName || i.exists(name) {
		t = t.Add(time.Nanosecond)
		name = versionName(t)
	}

	i.building = true
	i.lastName = name
	logger.Debug("Created new index build %s", name)

	return &Builder{idx: i, name: name, createdAt: t}, nil
}

func (i *Index) releaseBuild() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.building = false
}

// Activate publishes a saved version with a single pointer swap.
func (i *Index) Activate(snapshot driven.IndexSnapshot) error {
	v, ok := snapshot.(*Version)
	if !ok || v == nil {
		return fmt.Errorf("%w: snapshot was not produced by this index", domain.ErrInvalidInput)
	}
	if v.dimension != i.dimension {
		return fmt.Errorf("%w: version has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, v.dimension, i.dimension)
	}
	i.current.Store(v)
	logger.Info("Activated index version %s (%d vectors)", v.name, v.TotalCount())
	return nil
}

// LoadIndex replaces the current version with the named saved version.
// A missing version leaves an empty index current and returns
// domain.ErrIndexNotFound.
func (i *Index) LoadIndex(ctx context.Context, name string) error {
	dir, err := i.versionDir(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, indexFileName)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("vectorindex: stat %s: %w", name, err)
		}
		logger.Warn("Index version %s not found, starting with an empty index", name)
		i.current.Store(emptyVersion(i.dimension))
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, name)
	}

	v, err := readVersion(ctx, dir, name)
	if err != nil {
		return err
	}
	if v.dimension != i.dimension {
		return fmt.Errorf("%w: version %s has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, name, v.dimension, i.dimension)
	}

	i.current.Store(v)
	logger.Info("Loaded index version %s (%d vectors)", name, v.TotalCount())
	return nil
}

// LoadLatestIndex loads the newest saved version. With nothing saved an
// empty index becomes current and no error is returned.
func (i *Index) LoadLatestIndex(ctx context.Context) error {
	versions, err := i.scan()
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		logger.Info("No saved index in %s, starting with an empty index", i.baseDir)
		i.current.Store(emptyVersion(i.dimension))
		return nil
	}
	return i.LoadIndex(ctx, versions[0].Name)
}

// Versions lists saved versions, newest first.
func (i *Index) Versions(ctx context.Context) ([]domain.IndexVersion, error) {
	versions, err := i.scan()
	if err != nil {
		return nil, err
	}

	currentName := i.current.Load().name
	for n := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := &versions[n]
		v.Current = v.Name == currentName
		if h, err := readHeader(filepath.Join(v.Path, indexFileName)); err == nil {
			v.ChunkCount = int(h.Count)
			v.Dimension = int(h.Dimension)
		} else {
			logger.Warn("Skipping header of %s: %v", v.Name, err)
		}
	}
	return versions, nil
}

// Prune removes the oldest versioned directories beyond keep. The current
// version and the legacy pair are never removed.
func (i *Index) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("%w: keep must not be negative", domain.ErrInvalidInput)
	}
	versions, err := i.scan()
	if err != nil {
		return nil, err
	}

	currentName := i.current.Load().name
	var removed []string
	kept := 0
	for _, v := range versions {
		if v.Legacy {
			continue
		}
		if kept < keep || v.Name == currentName {
			kept++
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := os.RemoveAll(v.Path); err != nil {
			return removed, fmt.Errorf("vectorindex: remove %s: %w", v.Name, err)
		}
		logger.Info("Pruned index version %s", v.Name)
		removed = append(removed, v.Name)
	}
	return removed, nil
}

// scan lists saved versions ordered newest first by index.bin modification
// time, ties broken by name. The legacy pair sorts first only when strictly
// newer than every versioned directory.
func (i *Index) scan() ([]domain.IndexVersion, error) {
	entries, err := os.ReadDir(i.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("vectorindex: read %s: %w", i.baseDir, err)
	}

	var versions []domain.IndexVersion
	for _, e := range entries {
		if !e.IsDir() || !isVersionName(e.Name()) {
			continue
		}
		dir := filepath.Join(i.baseDir, e.Name())
		info, err := os.Stat(filepath.Join(dir, indexFileName))
		if err != nil {
			continue
		}
		created, ok := parseVersionName(e.Name())
		if !ok {
			created = info.ModTime()
		}
		versions = append(versions, domain.IndexVersion{
			Name:       e.Name(),
			Path:       dir,
			CreatedAt:  created,
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(versions, func(a, b int) bool {
		if !versions[a].ModifiedAt.Equal(versions[b].ModifiedAt) {
			return versions[a].ModifiedAt.After(versions[b].ModifiedAt)
		}
		return versions[a].Name > versions[b].Name
	})

	if info, err := os.Stat(filepath.Join(i.baseDir, indexFileName)); err == nil {
		legacy := domain.IndexVersion{
			Name:       LegacyName,
			Path:       i.baseDir,
			CreatedAt:  info.ModTime(),
			ModifiedAt: info.ModTime(),
			Legacy:     true,
		}
		if len(versions) == 0 || info.ModTime().After(versions[0].ModifiedAt) {
			versions = append([]domain.IndexVersion{legacy}, versions...)
		} else {
			versions = append(versions, legacy)
		}
	}

	return versions, nil
}

// versionDir resolves a version name to its directory.
func (i *Index) versionDir(name string) (string, error) {
	if name == LegacyName {
		return i.baseDir, nil
	}
	if name == "" || filepath.Base(name) != name || !isVersionName(name) {
		return "", fmt.Errorf("%w: invalid index version name %q", domain.ErrInvalidInput, name)
	}
	return filepath.Join(i.baseDir, name), nil
}

func (i *Index) exists(name string) bool {
	_, err := os.Stat(filepath.Join(i.baseDir, name))
	return err == nil
}
