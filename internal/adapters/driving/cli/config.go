package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the TOML configuration file.

Keys use dotted names, for example retrieval.k or embedding.provider.
API keys are never stored; set the environment variable named by
embedding.api_key_env or llm.api_key_env instead (a .env file works too).`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured AI providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	state := "defaults, not yet written"
	if a.Config.Exists() {
		state = "loaded"
	}
	cmd.Printf("Config file: %s (%s)\n\n", a.Config.Path(), state)

	values := a.Config.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %-34s %v\n", k, values[k])
	}

	settings := a.Config.Settings()
	cmd.Println()
	cmd.Printf("  Embedding: %s\n", settings.Embedding.Provider.Description())
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("    %s: %s\n", settings.Embedding.APIKeyEnv, maskAPIKey(os.Getenv(settings.Embedding.APIKeyEnv)))
	}
	cmd.Printf("  Answers:   %s\n", settings.LLM.Provider.Description())
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("    %s: %s\n", settings.LLM.APIKeyEnv, maskAPIKey(os.Getenv(settings.LLM.APIKeyEnv)))
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	if a.Config.Exists() && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", a.Config.Path())
	}
	if err := a.Config.Save(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	cmd.Printf("Wrote %s\n", a.Config.Path())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := a.Config.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("set %s: %w", args[0], err)
	}
	cmd.Printf("%s = %v\n", args[0], a.Config.Values()[args[0]])
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if a.Validator == nil {
		return errors.New("validator not configured")
	}
	ctx := cmd.Context()
	settings := a.Config.Settings()

	var failed bool
	if err := a.Validator.ValidateEmbedding(ctx, settings.Embedding, settings.Index.Dimension); err != nil {
		cmd.Printf("Embedding (%s): %v\n", settings.Embedding.Provider, err)
		failed = true
	} else {
		cmd.Printf("Embedding (%s): ok\n", settings.Embedding.Provider)
	}
	if err := a.Validator.ValidateLLM(ctx, settings.LLM); err != nil {
		cmd.Printf("Answers (%s): %v\n", settings.LLM.Provider, err)
		failed = true
	} else {
		cmd.Printf("Answers (%s): ok\n", settings.LLM.Provider)
	}

	if failed {
		return errors.New("configuration check failed")
	}
	return nil
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
