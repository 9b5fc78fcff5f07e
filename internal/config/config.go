// Copyright 2024 SageMaker Chatbot Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete application configuration
type Config struct {
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Models  ModelsConfig  `mapstructure:"models"`
	Search  SearchConfig  `mapstructure:"search"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Session SessionConfig `mapstructure:"session"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// OpenAIConfig contains OpenAI API configuration
type OpenAIConfig struct {
	APIKey   string `mapstructure:"apikey"`
	Endpoint string `mapstructure:"endpoint"`
}

// ModelSettings names a model and its generation limits for one pipeline role
type ModelSettings struct {
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// ModelsConfig maps pipeline roles to model settings
type ModelsConfig struct {
	Classifier ModelSettings `mapstructure:"classifier"`
	Synthesis  ModelSettings `mapstructure:"synthesis"`
	SQL        ModelSettings `mapstructure:"sql"`
	Agent      ModelSettings `mapstructure:"agent"`
}

// SearchConfig contains document search configuration
type SearchConfig struct {
	IndexPath       string `mapstructure:"index_path"`
	MetadataBaseURL string `mapstructure:"metadata_base_url"`
	TopK            int    `mapstructure:"top_k"`
}

// PricingConfig contains the pricing data store configuration
type PricingConfig struct {
	DBPath    string `mapstructure:"db_path"`
	TableTopK int    `mapstructure:"table_top_k"`
}

// SessionConfig contains conversation store configuration
type SessionConfig struct {
	MaxSessions        int           `mapstructure:"max_sessions"`
	TTL                time.Duration `mapstructure:"ttl"`
	HistoryWindow      int           `mapstructure:"history_window"`
	HistoryTokenBudget int           `mapstructure:"history_token_budget"`
}

// AgentConfig contains agent orchestrator configuration
type AgentConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading
type LoadOptions struct {
	ConfigPath       string
	ValidateRequired bool
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := setConfigFile(v, opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("SM_CHATBOT")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error if env vars are set
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if opts.ValidateRequired {
		if err := validateConfig(&config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// OpenAI defaults
	v.SetDefault("openai.endpoint", "https://api.openai.com/v1")

	// Model role defaults. The classifier only emits a short label so it runs
	// on the small model with a tight token limit.
	v.SetDefault("models.classifier.model", "gpt-4o-mini")
	v.SetDefault("models.classifier.max_tokens", 64)
	v.SetDefault("models.classifier.temperature", 0.0)
	v.SetDefault("models.synthesis.model", "gpt-4o")
	v.SetDefault("models.synthesis.max_tokens", 1024)
	v.SetDefault("models.synthesis.temperature", 0.0)
	v.SetDefault("models.sql.model", "gpt-4o")
	v.SetDefault("models.sql.max_tokens", 1024)
	v.SetDefault("models.sql.temperature", 0.0)
	v.SetDefault("models.agent.model", "gpt-4o")
	v.SetDefault("models.agent.max_tokens", 1024)
	v.SetDefault("models.agent.temperature", 0.0)

	// Search defaults
	v.SetDefault("search.index_path", "./data/docs.bleve")
	v.SetDefault("search.top_k", 5)

	// Pricing defaults
	v.SetDefault("pricing.db_path", "./data/pricing.db")
	v.SetDefault("pricing.table_top_k", 5)

	// Session defaults
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.history_window", 10)
	v.SetDefault("session.history_token_budget", 4000)

	// Agent defaults
	v.SetDefault("agent.max_iterations", 3)

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 5*time.Minute)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// setConfigFile sets the configuration file path with fallback logic
func setConfigFile(v *viper.Viper, configPath string) error {
	// Check for CONFIG_PATH environment variable
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return nil
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	// Default fallback locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return nil
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"OPENAI_API_KEY":    "openai.apikey",
		"OPENAI_ENDPOINT":   "openai.endpoint",
		"SEARCH_INDEX_PATH": "search.index_path",
		"PRICING_DB_PATH":   "pricing.db_path",
		"LOG_LEVEL":         "logging.level",
		"LOG_FORMAT":        "logging.format",
		"LOG_OUTPUT":        "logging.output",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for required fields and valid values
func validateConfig(config *Config) error {
	var errs []ValidationError

	if config.OpenAI.APIKey == "" {
		errs = append(errs, ValidationError{
			Field:   "openai.apikey",
			Message: "OpenAI API key is required. Set via config file or OPENAI_API_KEY environment variable",
		})
	}

	if config.Search.TopK <= 0 {
		errs = append(errs, ValidationError{
			Field:   "search.top_k",
			Message: "top_k must be greater than 0",
		})
	}

	if config.Pricing.DBPath == "" {
		errs = append(errs, ValidationError{
			Field:   "pricing.db_path",
			Message: "pricing database path is required",
		})
	} else if err := validateDirectoryExists(filepath.Dir(config.Pricing.DBPath)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "pricing.db_path",
			Message: fmt.Sprintf("pricing database directory does not exist: %s", filepath.Dir(config.Pricing.DBPath)),
		})
	}

	if config.Pricing.TableTopK <= 0 {
		errs = append(errs, ValidationError{
			Field:   "pricing.table_top_k",
			Message: "table_top_k must be greater than 0",
		})
	}

	if config.Session.MaxSessions <= 0 {
		errs = append(errs, ValidationError{
			Field:   "session.max_sessions",
			Message: "max_sessions must be greater than 0",
		})
	}

	if config.Session.HistoryWindow < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.history_window",
			Message: "history_window must be greater than or equal to 0",
		})
	}

	if config.Session.HistoryTokenBudget < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.history_token_budget",
			Message: "history_token_budget must be greater than or equal to 0",
		})
	}

	if config.Agent.MaxIterations <= 0 {
		errs = append(errs, ValidationError{
			Field:   "agent.max_iterations",
			Message: "max_iterations must be greater than 0",
		})
	}

	for role, m := range map[string]ModelSettings{
		"classifier": config.Models.Classifier,
		"synthesis":  config.Models.Synthesis,
		"sql":        config.Models.SQL,
		"agent":      config.Models.Agent,
	} {
		if m.MaxTokens <= 0 {
			errs = append(errs, ValidationError{
				Field:   "models." + role + ".max_tokens",
				Message: "max_tokens must be greater than 0",
			})
		}
		if m.Temperature < 0 || m.Temperature > 2 {
			errs = append(errs, ValidationError{
				Field:   "models." + role + ".temperature",
				Message: "temperature must be between 0 and 2",
			})
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if len(errs) > 0 {
		var errorMessages []string
		for _, err := range errs {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	if masked.OpenAI.APIKey != "" {
		masked.OpenAI.APIKey = maskValue(masked.OpenAI.APIKey)
	}

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateDirectoryExists checks if a directory exists
func validateDirectoryExists(path string) error {
	if path == "" || path == "." {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	return nil
}

// WatchConfig enables configuration hot-reloading for development
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()

	if err := setConfigFile(v, configPath); err != nil {
		return err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Printf("Config file changed: %s\n", e.Name)

		config, err := LoadWithOptions(LoadOptions{
			ConfigPath:       configPath,
			ValidateRequired: true,
		})
		if err != nil {
			fmt.Printf("Failed to reload config: %v\n", err)
			return
		}

		callback(config)
	})

	return nil
}
