// Package cli provides the campaign-rag command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driving"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// App holds the services commands run against.
type App struct {
	Config    driven.ConfigStore
	Validator driven.AIConfigValidator
	Campaigns driven.CampaignStore
	Index     driven.VectorIndex

	Search   driving.SearchService
	Query    driving.QueryService
	Indexing driving.IndexingService
	Versions driving.VersionService

	// NewSource opens a campaign feed at path.
	NewSource func(path string, validate bool) driven.CampaignSource

	// Warnings are shown once before the command runs.
	Warnings []string

	// KeywordOnly is set when no embedding service is available.
	KeywordOnly bool

	// Close releases resources. Optional.
	Close func()
}

// Bootstrap builds the App from the configuration directory.
type Bootstrap func(ctx context.Context, configDir string) (*App, error)

var (
	bootstrap Bootstrap
	app       *App
)

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that wires services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

var rootCmd = &cobra.Command{
	Use:   "campaign-rag",
	Short: "Campaign retrieval and indexing engine",
	Long: `campaign-rag chunks and embeds promotional campaign records into
versioned vector indexes and answers keyword, semantic and hybrid queries
over them.

Typical flow:
  campaign-rag import data/campaigns
  campaign-rag index
  campaign-rag search "autoking kampanyası"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default ~/.campaign-rag)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer closeApp()
	return rootCmd.ExecuteContext(ctx)
}

// loadApp returns the wired App, bootstrapping it on first use.
func loadApp(cmd *cobra.Command) (*App, error) {
	if app != nil {
		return app, nil
	}
	if bootstrap == nil {
		return nil, errors.New("services not configured")
	}

	a, err := bootstrap(cmd.Context(), configDir)
	if err != nil {
		return nil, fmt.Errorf("initialise: %w", err)
	}
	for _, w := range a.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}
	app = a
	return app, nil
}

func closeApp() {
	if app != nil && app.Close != nil {
		app.Close()
	}
	app = nil
}
