package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

var (
	searchK         int
	searchStrategy  string
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed campaigns",
	Long: `Searches the current index version.

Strategies:
  vector  - nearest neighbours of the query embedding, reranked
  keyword - chunks sharing words with the query or its spelling variants
  hybrid  - both, merged and reranked (default)

Exact campaign IDs and titles always outrank semantic matches.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().StringVarP(&searchStrategy, "strategy", "s", "", "vector, keyword or hybrid")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0,
		"maximum squared L2 distance for vector hits (100 disables)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	opts, err := searchOptions(cmd, a)
	if err != nil {
		return err
	}

	resp, err := a.Search.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, resp)
	}
	outputSearchTable(cmd, resp)
	return nil
}

// searchOptions builds options from the search flags shared by search and ask.
func searchOptions(cmd *cobra.Command, a *App) (domain.SearchOptions, error) {
	opts := domain.SearchOptions{K: searchK}

	if searchStrategy != "" {
		strategy, err := domain.ParseSearchStrategy(searchStrategy)
		if err != nil {
			return opts, err
		}
		opts.Strategy = strategy
	}
	if a.KeywordOnly && opts.Strategy != domain.SearchStrategyKeyword {
		logger.Warn("no embedding service available, using keyword search")
		opts.Strategy = domain.SearchStrategyKeyword
	}

	if cmd.Flags().Changed("threshold") {
		threshold := searchThreshold
		opts.SimilarityThreshold = &threshold
	}
	return opts, nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) {
	if resp.Count == 0 {
		cmd.Println("No results found.")
		return
	}

	width := snippetWidth()
	cmd.Printf("Results (%s):\n\n", resp.Strategy)
	for _, r := range resp.Results {
		title := r.Chunk.Title
		if title == "" {
			title = r.Chunk.CampaignID
		}

		// Format: [N] Title (campaign ID) score
		cmd.Printf("  [%d] %s (%s) %.3f\n", r.Rank, title, r.Chunk.CampaignID, r.Score)
		if r.Distance != nil {
			cmd.Printf("      Distance: %.2f  Chunk: %s\n", *r.Distance, r.Chunk.Type)
		}
		if snippet := snippet(r.Chunk.Text, width); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}

// snippetWidth fits snippets to the terminal, or 100 columns when piped.
func snippetWidth() int {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
			return w - 8
		}
	}
	return 100
}

func snippet(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-3]) + "..."
}
