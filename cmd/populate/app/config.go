package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/emetrics/populate/pkg/constants"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Storage
	DBPath string

	// Model
	ModelProvider  string
	ModelName      string
	Temperature    float64
	GeminiAPIKey   string
	MistralAPIKey  string
	MistralBaseURL string
	VertexProject  string
	VertexLocation string

	// Pipeline
	Timelines   bool
	SortHistory bool

	// Sources
	WikipediaURL   string
	DuckDuckGoURL  string
	SourceMaxChars int

	// Coordination and metrics
	RedisURL    string
	LockTTL     time.Duration
	MetricsFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.populate.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults()
	bindAPIKeys()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(constants.ConfigName)
		}
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.ConfigFileUsed(),

		DBPath: viper.GetString("db"),

		ModelProvider:  strings.ToLower(viper.GetString("model.provider")),
		ModelName:      viper.GetString("model.name"),
		Temperature:    viper.GetFloat64("model.temperature"),
		GeminiAPIKey:   firstNonEmpty(viper.GetString("GEMINI_API_KEY"), viper.GetString("GOOGLE_API_KEY")),
		MistralAPIKey:  viper.GetString("MISTRAL_API_KEY"),
		MistralBaseURL: viper.GetString("model.mistral_url"),
		VertexProject:  firstNonEmpty(viper.GetString("model.vertex_project"), viper.GetString("GOOGLE_CLOUD_PROJECT")),
		VertexLocation: firstNonEmpty(viper.GetString("model.vertex_location"), viper.GetString("GOOGLE_CLOUD_LOCATION")),

		Timelines:   viper.GetBool("timelines"),
		SortHistory: viper.GetBool("sort_history"),

		WikipediaURL:   viper.GetString("sources.wikipedia_url"),
		DuckDuckGoURL:  viper.GetString("sources.duckduckgo_url"),
		SourceMaxChars: viper.GetInt("sources.max_chars"),

		RedisURL:    viper.GetString("redis.url"),
		LockTTL:     viper.GetDuration("lock_ttl"),
		MetricsFile: viper.GetString("metrics_file"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", viper.GetString("log.output")),
	}

	return config, nil
}

// setDefaults registers the values used when nothing else sets a key.
func setDefaults() {
	viper.SetDefault("db", constants.DefaultDBPath)
	viper.SetDefault("model.provider", constants.DefaultModelProvider)
	viper.SetDefault("model.temperature", constants.DefaultTemperature)
	viper.SetDefault("model.vertex_location", "us-central1")
	viper.SetDefault("sources.wikipedia_url", constants.WikipediaAPIURL)
	viper.SetDefault("sources.duckduckgo_url", constants.DuckDuckGoAPIURL)
	viper.SetDefault("sources.max_chars", constants.SourceMaxChars)
	viper.SetDefault("lock_ttl", constants.DefaultLockTTL)
	viper.SetDefault("log.output", constants.DefaultLogFile)
}

// ResolvedModelName returns the configured model or the provider's default.
func (c *Config) ResolvedModelName() string {
	if c.ModelName != "" {
		return c.ModelName
	}
	if c.ModelProvider == "mistral" {
		return constants.DefaultMistralModel
	}
	return constants.DefaultGeminiModel
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// bindAPIKeys explicitly binds the credential environment variables to Viper.
func bindAPIKeys() {
	apiKeys := []string{
		"GEMINI_API_KEY",
		"GOOGLE_API_KEY",
		"GOOGLE_CLOUD_PROJECT",
		"GOOGLE_CLOUD_LOCATION",
		"MISTRAL_API_KEY",
	}

	for _, key := range apiKeys {
		if err := viper.BindEnv(key); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
