package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assessment service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig describes the completion provider used for port extraction,
// assessment and follow-up chat.
type LLMConfig struct {
	Type      string        `mapstructure:"type"` // anthropic
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (l LLMConfig) Validate() error {
	if strings.TrimSpace(l.Type) == "" {
		return fmt.Errorf("llm.type is required")
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model is required")
	}
	return nil
}

// SourcesConfig contains the enrichment source configurations.
type SourcesConfig struct {
	NewsAPI   NewsAPIConfig   `mapstructure:"newsapi"`
	Wikipedia WikipediaConfig `mapstructure:"wikipedia"`
}

// NewsAPIConfig contains NewsAPI settings.
type NewsAPIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	MaxResults int    `mapstructure:"max_results"`
}

// WikipediaConfig contains MediaWiki API settings.
type WikipediaConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoadConfig loads config from file and environment. A missing config
// file is tolerated: every option can come from HARBORWATCH_* env vars
// or the provider key fallbacks.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("llm.type", "anthropic")
	viper.SetDefault("llm.model", "claude-haiku-4-5-20251001")
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("sources.newsapi.endpoint", "https://newsapi.org/v2/everything")
	viper.SetDefault("sources.newsapi.max_results", 5)
	viper.SetDefault("sources.wikipedia.endpoint", "https://en.wikipedia.org/w/api.php")
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.namespace", "harborwatch")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("HARBORWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// Bare env keys win over nothing, not over explicit config.
	if config.LLM.APIKey == "" {
		config.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if config.Sources.NewsAPI.APIKey == "" {
		config.Sources.NewsAPI.APIKey = os.Getenv("NEWS_API_KEY")
	}

	if err := config.LLM.Validate(); err != nil {
		panic(err)
	}
	return &config
}
