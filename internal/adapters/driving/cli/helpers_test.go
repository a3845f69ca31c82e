package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/llm/template"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/vectorindex"
	"github.com/custodia-labs/campaign-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/core/services"
	"github.com/custodia-labs/campaign-rag/internal/normalisers/query"
	"github.com/custodia-labs/campaign-rag/internal/postprocessors/chunker"
)

const testDimension = 64

// testEnv is an App wired to real adapters under a temporary directory.
type testEnv struct {
	app     *App
	dir     string
	feedDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg, err := file.NewConfigStore(filepath.Join(dir, "config"))
	require.NoError(t, err)
	settings := cfg.Settings()
	settings.Index.Dir = filepath.Join(dir, "index")
	settings.Index.Dimension = testDimension
	settings.Feed.Dir = filepath.Join(dir, "feed")
	require.NoError(t, cfg.Update(settings))
	settings = cfg.Settings()
	require.NoError(t, os.MkdirAll(settings.Feed.Dir, 0o755))

	idx, err := vectorindex.New(settings.Index.Dir, settings.Index.Dimension)
	require.NoError(t, err)

	embedder := hashing.NewEmbeddingService(settings.Index.Dimension)
	search := services.NewSearchService(idx, embedder, query.New(), settings.Retrieval, settings.Scoring)
	runs := memory.NewIndexRunStore()

	a := &App{
		Config:    cfg,
		Validator: ai.NewConfigValidator(ai.Deps{}),
		Campaigns: memory.NewCampaignStore(),
		Index:     idx,
		Search:    search,
		Query:     services.NewQueryService(search, template.New(), nil),
		Indexing: services.NewIndexingService(
			chunker.New(chunker.WithChunkSize(settings.Chunker.ChunkSize), chunker.WithOverlap(settings.Chunker.Overlap)),
			idx, embedder, services.WithRunStore(runs),
		),
		Versions: services.NewVersionService(idx),
		NewSource: func(path string, validate bool) driven.CampaignSource {
			if validate {
				return filesystem.New(path, filesystem.WithValidation())
			}
			return filesystem.New(path)
		},
	}

	app = a
	t.Cleanup(func() {
		app = nil
		resetFlags(rootCmd)
	})

	return &testEnv{app: a, dir: dir, feedDir: settings.Feed.Dir}
}

// writeFeed writes campaigns as individual JSON files into the feed directory.
func (e *testEnv) writeFeed(t *testing.T, campaigns ...domain.Campaign) {
	t.Helper()
	for _, c := range campaigns {
		data, err := json.Marshal(c)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(e.feedDir, "campaign_"+c.ID+".json"), data, 0o600))
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func sampleCampaigns() []domain.Campaign {
	return []domain.Campaign{
		{
			ID:          "2",
			Title:       "Auto King",
			Description: "Special car loan campaign with low interest",
			Terms:       "Valid for new customers until the end of the year.",
			Benefits:    "Low interest rates on new cars.",
			CleanedText: "Auto King offers low interest car loans for new customers.",
			URL:         "https://example.com/campaigns/auto-king",
		},
		{
			ID:          "7",
			Title:       "Travel Card",
			Description: "Earn miles on every purchase abroad",
			CleanedText: "Travel Card gives double miles for purchases made abroad.",
		},
	}
}
