package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete council configuration
type Config struct {
	Council  CouncilConfig  `mapstructure:"council"`
	Provider ProviderConfig `mapstructure:"provider"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CouncilConfig controls the deliberation pipeline
type CouncilConfig struct {
	// Members are the OpenRouter model identifiers sitting on the council
	Members []string `mapstructure:"members"`
	// Chairman synthesizes the final answer; must be one of Members
	Chairman string `mapstructure:"chairman"`
	// TitleModel generates conversation titles (fast and cheap)
	TitleModel string `mapstructure:"title_model"`
	// MaxConcurrent caps in-flight backend calls per stage
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// ConsensusThreshold is the first-place vote share needed for consensus (0..1]
	ConsensusThreshold float64 `mapstructure:"consensus_threshold"`
	// StreamSynthesis streams the chairman's answer token by token
	StreamSynthesis bool `mapstructure:"stream_synthesis"`
}

// ProviderConfig controls the OpenRouter backend client
type ProviderConfig struct {
	// BaseURL is the chat completions endpoint
	BaseURL string `mapstructure:"base_url"`
	// APIKey authenticates requests; usually set via COUNCIL_PROVIDER_API_KEY
	APIKey string `mapstructure:"api_key"`
	// TimeoutSeconds bounds each backend call
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// SiteURL and SiteName populate OpenRouter's attribution headers
	SiteURL  string `mapstructure:"site_url"`
	SiteName string `mapstructure:"site_name"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	// Addr is the listen address (host:port)
	Addr string `mapstructure:"addr"`
}

// StorageConfig controls conversation persistence
type StorageConfig struct {
	// DataDir holds conversation JSON files and the debug log
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Enabled turns file logging on; when false logs go nowhere
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum severity: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
}

// Timeout returns the provider timeout as a duration.
func (p *ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Default returns a Config with all default values set
func Default() *Config {
	return &Config{
		Council: CouncilConfig{
			Members: []string{
				"openai/gpt-5.1",
				"google/gemini-3-pro-preview",
				"anthropic/claude-sonnet-4.5",
				"x-ai/grok-4",
			},
			Chairman:           "google/gemini-3-pro-preview",
			TitleModel:         "google/gemini-2.5-flash",
			MaxConcurrent:      8,
			ConsensusThreshold: 0.8,
			StreamSynthesis:    true,
		},
		Provider: ProviderConfig{
			BaseURL:        "https://openrouter.ai/api/v1/chat/completions",
			TimeoutSeconds: 120,
			SiteName:       "council",
		},
		Server: ServerConfig{
			Addr: "localhost:8000",
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// SetDefaults registers all default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("council.members", defaults.Council.Members)
	viper.SetDefault("council.chairman", defaults.Council.Chairman)
	viper.SetDefault("council.title_model", defaults.Council.TitleModel)
	viper.SetDefault("council.max_concurrent", defaults.Council.MaxConcurrent)
	viper.SetDefault("council.consensus_threshold", defaults.Council.ConsensusThreshold)
	viper.SetDefault("council.stream_synthesis", defaults.Council.StreamSynthesis)

	viper.SetDefault("provider.base_url", defaults.Provider.BaseURL)
	viper.SetDefault("provider.api_key", defaults.Provider.APIKey)
	viper.SetDefault("provider.timeout_seconds", defaults.Provider.TimeoutSeconds)
	viper.SetDefault("provider.site_url", defaults.Provider.SiteURL)
	viper.SetDefault("provider.site_name", defaults.Provider.SiteName)

	viper.SetDefault("server.addr", defaults.Server.Addr)

	viper.SetDefault("storage.data_dir", defaults.Storage.DataDir)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load unmarshals the current viper state into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "council")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".council"
	}
	return filepath.Join(home, ".config", "council")
}
