package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       App       `mapstructure:"app"`
	Gemini    Gemini    `mapstructure:"gemini"`
	Embedding Embedding `mapstructure:"embedding"`
	Output    Output    `mapstructure:"output"`
	Cache     Cache     `mapstructure:"cache"`
	Pipeline  Pipeline  `mapstructure:"pipeline"`
	Logging   Logging   `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug bool `mapstructure:"debug"`
}

// Gemini holds Google Gemini configuration
type Gemini struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Embedding holds embedding provider configuration
type Embedding struct {
	Model             string `mapstructure:"model"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// Output holds output configuration
type Output struct {
	Directory string `mapstructure:"directory"`
}

// Cache holds embedding cache configuration
type Cache struct {
	Directory string `mapstructure:"directory"`
}

// Pipeline holds analysis pipeline tuning
type Pipeline struct {
	Seed    int64 `mapstructure:"seed"`
	Workers int   `mapstructure:"workers"`
}

// Logging holds logging configuration
type Logging struct {
	Level string `mapstructure:"level"`
}

var globalConfig *Config

// Load reads configuration from the given file (or the default search
// paths when empty), applies environment overrides, and returns the
// resulting Config.
func Load(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".insightsuite")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Cache.Directory = expandPath(config.Cache.Directory)
	config.Output.Directory = expandPath(config.Output.Directory)

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

func setDefaults() {
	viper.SetDefault("app.debug", false)

	viper.SetDefault("gemini.api_key", "")
	viper.SetDefault("gemini.model", "gemini-2.5-flash")

	viper.SetDefault("embedding.model", "text-embedding-004")
	viper.SetDefault("embedding.requests_per_minute", 60)

	viper.SetDefault("output.directory", "artifacts")
	viper.SetDefault("cache.directory", ".insightsuite-cache")

	viper.SetDefault("pipeline.seed", 42)
	viper.SetDefault("pipeline.workers", 4)

	viper.SetDefault("logging.level", "info")
}

func bindEnvironmentVariables() {
	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"INSIGHTSUITE_DEBUG",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// HasGeminiKey reports whether an API key is configured and is not an
// obvious placeholder.
func HasGeminiKey() bool {
	key := Get().Gemini.APIKey
	if key == "" {
		return false
	}
	placeholders := []string{
		"your-api-key", "YOUR_API_KEY", "PLACEHOLDER", "CHANGE_ME",
	}
	for _, placeholder := range placeholders {
		if key == placeholder {
			return false
		}
	}
	return true
}

// Issues returns human-readable problems with the current configuration.
// An empty slice means the configuration is usable. A missing API key is
// reported but is not an error: the pipeline degrades to lexical
// embeddings and rule-based summaries without one.
func Issues() []string {
	var issues []string
	config := Get()

	if !HasGeminiKey() {
		issues = append(issues, "No Gemini API key configured. Set GEMINI_API_KEY or gemini.api_key; runs will use lexical embeddings and rule-based summaries.")
	}
	if config.Pipeline.Workers < 1 {
		issues = append(issues, fmt.Sprintf("pipeline.workers must be at least 1, got %d", config.Pipeline.Workers))
	}
	if config.Embedding.RequestsPerMinute < 1 {
		issues = append(issues, fmt.Sprintf("embedding.requests_per_minute must be at least 1, got %d", config.Embedding.RequestsPerMinute))
	}

	return issues
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
