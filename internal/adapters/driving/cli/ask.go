package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from indexed campaigns",
	Long: `Retrieves the best matching campaign passages and composes an answer.

With [llm] provider = "openai" the answer is written by the model; otherwise
the retrieved passages are laid out as a template answer. Sources are
listed after the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&searchK, "top-k", "k", 0, "number of passages to use (default from config)")
	askCmd.Flags().StringVarP(&searchStrategy, "strategy", "s", "", "vector, keyword or hybrid")
	askCmd.Flags().Float64Var(&searchThreshold, "threshold", 0,
		"maximum squared L2 distance for vector hits (100 disables)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	opts, err := searchOptions(cmd, a)
	if err != nil {
		return err
	}

	answer, err := a.Query.Ask(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if answer.NumSources > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, s := range answer.Sources {
			cmd.Printf("  [%d] %s (%s) %.3f\n", i+1, s.Title, s.CampaignID, s.Score)
		}
	}
	return nil
}
