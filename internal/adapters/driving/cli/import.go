package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importValidate bool

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import campaign records into the campaign store",
	Long: `Reads campaign records from a directory of *.json, *.yaml and *.yml
files (or a single file) and stores them for indexing. Records with an
existing campaign ID are replaced.

campaigns_summary.json is only read when it is the only file present.
With --validate, whitespace is collapsed and records without an ID, with a
title under 3 characters or a description under 10 characters are dropped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importValidate, "validate", false, "clean records and drop invalid ones")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	path := a.Config.Settings().Feed.Dir
	if len(args) == 1 {
		path = args[0]
	}

	campaigns, err := a.NewSource(path, importValidate).Load(ctx)
	if err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}
	if len(campaigns) == 0 {
		cmd.Printf("No campaigns found in %s\n", path)
		return nil
	}

	if err := a.Campaigns.Save(ctx, campaigns); err != nil {
		return fmt.Errorf("save campaigns: %w", err)
	}

	total, err := a.Campaigns.Count(ctx)
	if err != nil {
		return fmt.Errorf("count campaigns: %w", err)
	}
	cmd.Printf("Imported %d campaigns from %s (%d stored)\n", len(campaigns), path, total)
	return nil
}
