// Package filesystem reads campaign records from the directory the
// collection pipeline writes to.
package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.CampaignSource = (*Source)(nil)

// SummaryName is the base name of the aggregate feed file. It is only read
// when no per-campaign files exist.
const SummaryName = "campaigns_summary"

// Source loads campaigns from *.json, *.yaml and *.yml files in a directory.
// A directory argument may also name a single file.
type Source struct {
	path     string
	validate bool
}

// Option configures a Source.
type Option func(*Source)

// WithValidation cleans every campaign and drops those failing Validate.
func WithValidation() Option {
	return func(s *Source) {
		s.validate = true
	}
}

// New creates a source for the given directory or file.
func New(path string, opts ...Option) *Source {
	s := &Source{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the directory or file the source reads.
func (s *Source) Path() string {
	return s.path
}

// Load returns the campaigns in the feed. Files that cannot be parsed are
// logged and skipped; a later file replaces an earlier one with the same ID.
func (s *Source) Load(ctx context.Context) ([]domain.Campaign, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	var loaded []domain.Campaign
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		campaigns, err := ReadFile(path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			continue
		}
		loaded = append(loaded, campaigns...)
	}

	campaigns := make([]domain.Campaign, 0, len(loaded))
	seen := make(map[string]int, len(loaded))
	for _, c := range loaded {
		if s.validate {
			c = Clean(c)
			if err := Validate(c); err != nil {
				logger.Warn("dropping campaign %q: %v", c.ID, err)
				continue
			}
		}
		if i, ok := seen[c.ID]; ok && c.ID != "" {
			logger.Debug("campaign %s appears more than once, keeping the last", c.ID)
			campaigns[i] = c
			continue
		}
		seen[c.ID] = len(campaigns)
		campaigns = append(campaigns, c)
	}

	logger.Info("loaded %d campaigns from %s", len(campaigns), s.path)
	return campaigns, nil
}

// files lists the feed files to read, in name order.
func (s *Source) files() ([]string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("read campaign feed: %w", err)
	}
	if !info.IsDir() {
		if !isFeedFile(s.path) {
			return nil, fmt.Errorf("%w: unsupported feed file %s", domain.ErrInvalidInput, s.path)
		}
		return []string{s.path}, nil
	}

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("read campaign feed: %w", err)
	}

	var campaigns, summaries []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isFeedFile(name) {
			continue
		}
		path := filepath.Join(s.path, name)
		if isSummary(name) {
			summaries = append(summaries, path)
		} else {
			campaigns = append(campaigns, path)
		}
	}

	if len(campaigns) == 0 {
		campaigns = summaries
	}
	sort.Strings(campaigns)
	return campaigns, nil
}

// ReadFile decodes one feed file. The file holds either a single campaign
// or a summary document with a "campaigns" list.
func ReadFile(path string) ([]domain.Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	unmarshal := json.Unmarshal
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		unmarshal = yaml.Unmarshal
	}

	if isSummary(filepath.Base(path)) {
		var feed domain.CampaignFeed
		if err := unmarshal(data, &feed); err != nil {
			return nil, fmt.Errorf("decode summary: %w", err)
		}
		return feed.Campaigns, nil
	}

	var c domain.Campaign
	if err := unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode campaign: %w", err)
	}
	return []domain.Campaign{c}, nil
}

func isFeedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func isSummary(name string) bool {
	return strings.TrimSuffix(name, filepath.Ext(name)) == SummaryName
}
