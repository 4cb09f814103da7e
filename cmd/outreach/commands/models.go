package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/outreach/internal/config"
	"github.com/jmylchreest/outreach/internal/output"
	"github.com/jmylchreest/outreach/pkg/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available from the configured provider",
	Long: `List the models the resolved LLM backend reports.

Examples:
  outreach models
  outreach models --provider anthropic --format yaml`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	flags := modelsCmd.Flags()
	flags.StringP("provider", "p", "", "LLM provider: auto, azure, openai, anthropic, gemini")
	flags.StringP("api-key", "k", "", "API key for the selected provider (or use env var)")
	flags.String("format", "json", "output format: json, yaml")
}

func runModels(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	providerName, _ := flags.GetString("provider")
	apiKey, _ := flags.GetString("api-key")
	formatName, _ := flags.GetString("format")

	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	settings, err = settings.WithOverrides(config.Overrides{Provider: providerName, APIKey: apiKey})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	p, err := newProvider(ctx, settings)
	if err != nil {
		return err
	}

	lister, ok := llm.AsModelLister(p)
	if !ok {
		return fmt.Errorf("provider %s cannot list models", p.Name())
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	w, err := output.NewWriter(os.Stdout, format)
	if err != nil {
		return err
	}
	return w.Write(models)
}
