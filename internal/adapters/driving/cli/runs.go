package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show indexing run history",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "maximum number of runs")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	runs, err := a.Indexing.Runs(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if runsJSON {
		return outputJSON(cmd, runs)
	}
	if len(runs) == 0 {
		cmd.Println("No indexing runs recorded.")
		return nil
	}

	for _, r := range runs {
		cmd.Printf("%s  %-9s  %-14s  %4d campaigns  %5d chunks  %s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Status, r.Strategy,
			r.CampaignCount, r.ChunkCount, r.Duration().Round(time.Millisecond))
		if r.VersionName != "" {
			cmd.Printf("    version: %s\n", r.VersionName)
		}
		if r.Error != "" {
			cmd.Printf("    error: %s\n", r.Error)
		}
	}
	return nil
}
