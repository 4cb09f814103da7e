package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/outreach/internal/config"
	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/internal/output"
	"github.com/jmylchreest/outreach/pkg/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate <profile-url-or-id>",
	Short: "Generate a personalized email for one profile",
	Long: `Load a profile, extract its fields and draft an email.

The argument is a full profile URL or a bare identifier, which is
appended to target.base_url (default https://www.linkedin.com/in/).

Examples:
  outreach generate https://www.linkedin.com/in/johndoe
  outreach generate johndoe --format yaml --output johndoe.yaml
  outreach generate johndoe --dump-text /tmp/johndoe.txt --debug`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringP("provider", "p", "", "LLM provider: auto, azure, openai, anthropic, gemini")
	flags.StringP("api-key", "k", "", "API key for the selected provider (or use env var)")
	flags.String("format", "json", "output format: json, yaml")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("dump-text", "", "write the normalized page text to this file")
	flags.String("engine", "", "browser engine: chromedp, rod, static")
	flags.String("boilerplate", "", "main-content pass: none, readability, trafilatura")

	_ = viper.BindPFlag("normalize.dump_path", flags.Lookup("dump-text"))
	_ = viper.BindPFlag("browser.engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("normalize.boilerplate", flags.Lookup("boilerplate"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	providerName, _ := flags.GetString("provider")
	apiKey, _ := flags.GetString("api-key")
	formatName, _ := flags.GetString("format")
	outputPath, _ := flags.GetString("output")

	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	settings, err = settings.WithOverrides(config.Overrides{Provider: providerName, APIKey: apiKey})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	outcome := generate(ctx, settings, args[0], buildPipeline)

	var dest io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		dest = f
	}

	w, err := output.NewWriter(dest, format)
	if err != nil {
		return err
	}
	if err := w.Write(outcome); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if !outcome.OK() {
		return errFailedOutcome
	}
	if outputPath != "" {
		logger.Info("wrote result", "path", outputPath)
	}
	return nil
}

type builder func(ctx context.Context, s config.Settings) (runner, error)

// generate runs one target. Build failures (no credentials) become failure
// outcomes so they are reported in the same shape.
func generate(ctx context.Context, s config.Settings, target string, build builder) *pipeline.Outcome {
	p, err := build(ctx, s)
	if err != nil {
		logger.Error("cannot build pipeline", "error", err)
		return pipeline.Classify(err, target, nil)
	}
	return p.Run(ctx, target)
}
