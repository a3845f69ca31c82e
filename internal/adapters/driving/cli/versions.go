package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	versionsJSON bool
	pruneKeep    int
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List saved index versions",
	Long: `Lists saved index versions, newest first. The current version is
marked with '*'. Legacy versions written without metadata are read-only and
marked 'legacy'.`,
	Args: cobra.NoArgs,
	RunE: runVersionsList,
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved index versions",
	Args:  cobra.NoArgs,
	RunE:  runVersionsList,
}

var versionsUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Make a saved version current",
	Long:  `Makes a saved version current, for rollback or roll forward.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsUse,
}

var versionsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Make the newest saved version current",
	Args:  cobra.NoArgs,
	RunE:  runVersionsLatest,
}

var versionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old index versions",
	Long:  `Removes the oldest saved versions beyond --keep. The current version is never removed.`,
	Args:  cobra.NoArgs,
	RunE:  runVersionsPrune,
}

func init() {
	versionsCmd.PersistentFlags().BoolVar(&versionsJSON, "json", false, "output as JSON")
	versionsPruneCmd.Flags().IntVar(&pruneKeep, "keep", 3, "number of versions to keep")
	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsUseCmd)
	versionsCmd.AddCommand(versionsLatestCmd)
	versionsCmd.AddCommand(versionsPruneCmd)
	rootCmd.AddCommand(versionsCmd)
}

func runVersionsList(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	versions, err := a.Versions.Versions(cmd.Context())
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	if versionsJSON {
		return outputJSON(cmd, versions)
	}

	current := a.Index.Current()
	cmd.Printf("Current: %s (%d chunks, dimension %d)\n\n",
		displayName(current.Name()), current.TotalCount(), current.Dimension())

	if len(versions) == 0 {
		cmd.Println("No saved versions. Run 'campaign-rag index' to build one.")
		return nil
	}

	for _, v := range versions {
		marker := " "
		if v.Current {
			marker = "*"
		}
		note := ""
		if v.Legacy {
			note = "  legacy"
		}
		cmd.Printf("%s %s  %6d chunks  %s%s\n",
			marker, v.Name, v.ChunkCount, v.CreatedAt.Local().Format(time.DateTime), note)
	}
	return nil
}

func runVersionsUse(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.Versions.Use(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("use version: %w", err)
	}
	cmd.Printf("Now using %s\n", displayName(a.Index.Current().Name()))
	return nil
}

func runVersionsLatest(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.Versions.UseLatest(cmd.Context()); err != nil {
		return fmt.Errorf("use latest version: %w", err)
	}
	cmd.Printf("Now using %s\n", displayName(a.Index.Current().Name()))
	return nil
}

func runVersionsPrune(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	removed, err := a.Versions.Prune(cmd.Context(), pruneKeep)
	if err != nil {
		return fmt.Errorf("prune versions: %w", err)
	}
	if len(removed) == 0 {
		cmd.Println("Nothing to prune.")
		return nil
	}
	for _, name := range removed {
		cmd.Printf("Removed %s\n", name)
	}
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "(empty index)"
	}
	return name
}
