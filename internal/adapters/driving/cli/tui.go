package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/campaign-rag/internal/adapters/driven/watcher"
	"github.com/custodia-labs/campaign-rag/internal/adapters/driving/tui"
	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/logger"
)

// errNotTerminal is returned when the TUI is started without a terminal.
var errNotTerminal = errors.New("tui requires an interactive terminal; use `campaign-rag search` instead")

// isTerminal reports whether stdin and stdout are attached to a terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runProgram runs the TUI; replaced in tests.
var runProgram = func(a *tui.App) error {
	return a.Run()
}

var noWatch bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal UI for searching campaigns, asking
questions and switching index versions.

Versions published by another process (for example a scheduled
"campaign-rag index") are picked up automatically unless --no-watch is set.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Search / Select
  a        - Answer the current query
  s        - Cycle search strategy
  Esc      - Back
  ctrl+c   - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when a new index version is published")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	if !isTerminal() {
		return errNotTerminal
	}

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\nStack trace:\n%s\n", r, debug.Stack())
			err = fmt.Errorf("tui panic: %v", r)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	settings := a.Config.Settings()
	ports := &tui.Ports{
		Search:   a.Search,
		Query:    a.Query,
		Versions: a.Versions,
		Strategy: settings.Retrieval.Strategy,
		K:        settings.Retrieval.K,
	}
	if a.KeywordOnly {
		ports.Strategy = domain.SearchStrategyKeyword
	}

	if !noWatch && a.Index != nil {
		reloads, err := startWatcher(ctx, settings.Index.Dir, a)
		if err != nil {
			logger.Warn("Index reload disabled: %v", err)
		} else {
			ports.Reloads = reloads
		}
	}

	program, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	program.WithContext(ctx)

	// Log lines would corrupt the alternate screen
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)
	if err := runProgram(program); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// startWatcher follows dir and reports every successfully loaded version.
func startWatcher(ctx context.Context, dir string, a *App) (<-chan string, error) {
	reloads := make(chan string, 1)
	w, err := watcher.New(dir, a.Index, watcher.WithOnReload(func(name string, err error) {
		if err != nil {
			return
		}
		select {
		case reloads <- name:
		default:
		}
	}))
	if err != nil {
		return nil, err
	}

	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Warn("Index watcher stopped: %v", err)
		}
	}()
	return reloads, nil
}
