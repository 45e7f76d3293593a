// Package cmd defines the council command-line interface.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"council/internal/config"
	"council/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "council",
	Short: "Multi-model deliberation engine",
	Long: `Council sends a question to several LLM backends in parallel, has
them rank each other's anonymized answers, and asks a chairman model to
synthesize the collected responses and critiques into one final answer.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/council/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("COUNCIL")
	// COUNCIL_PROVIDER_API_KEY maps to provider.api_key, and so on for
	// every nested key.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// The provider's own variable name works too.
	_ = viper.BindEnv("provider.api_key", "COUNCIL_PROVIDER_API_KEY", "OPENROUTER_API_KEY")

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig reads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	return cfg, nil
}

// buildLogger creates the configured logger; logging can be disabled
// entirely.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLogger(cfg.Storage.DataDir, cfg.Logging.Level)
}
