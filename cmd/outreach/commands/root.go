// Package commands implements the CLI commands for outreach.
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/outreach/internal/config"
	"github.com/jmylchreest/outreach/internal/logger"
)

// errFailedOutcome makes the process exit 1 after the outcome was printed.
var errFailedOutcome = errors.New("run failed")

var rootCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Turn a profile page into a personalized outreach email",
	Long: `Outreach loads a LinkedIn profile in a browser, extracts the person's
name, title, company and about section with an LLM, and drafts a short
personalized email from them.

Examples:
  # Generate an email for a profile
  outreach generate https://www.linkedin.com/in/johndoe

  # Use a bare profile identifier and Anthropic
  outreach generate johndoe --provider anthropic

  # Serve the HTTP API
  outreach serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.outreach.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log.json", flags.Lookup("log-json"))
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".outreach")
		v.SetConfigType("yaml")
	}

	// a missing config file is fine
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error: reading config: %v\n", err)
		}
	}
}

// loadSettings reads the settings and configures the logger from them.
func loadSettings() (config.Settings, error) {
	s, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(logger.Options{
		Level: s.Log.Level,
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  s.Log.JSON,
	})
	logger.Debug("configuration loaded", "config_file", viper.ConfigFileUsed(), "provider", s.Provider.Name, "engine", s.Browser.Engine)
	return s, nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errFailedOutcome) {
		logError("%v", err)
	}
	return err
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
