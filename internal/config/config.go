// ABOUTME: Centralized configuration for the course assistant
// ABOUTME: Defaults, then an optional config file, then COURSEMATE_ environment variables
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/harper/coursemate/internal/models"
	"github.com/harper/coursemate/internal/storage/sqlite"
)

// EnvPrefix prefixes every environment variable except OPENAI_API_KEY
const EnvPrefix = "COURSEMATE"

// Config holds all configuration for coursemate
type Config struct {
	// OpenAI settings
	OpenAIKey     string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	ChatModel     string        `mapstructure:"chat_model"`
	Temperature   float32       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	MaxToolRounds int           `mapstructure:"max_tool_rounds"`
	Timeout       time.Duration `mapstructure:"openai_timeout"`
	MaxRetries    int           `mapstructure:"openai_max_retries"`
	RetryDelay    time.Duration `mapstructure:"openai_retry_delay"`

	// Embedding settings
	EmbeddingProvider  string `mapstructure:"embedding_provider"`
	EmbeddingModel     string `mapstructure:"embedding_model"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension"`

	// Ingestion and retrieval
	ChunkSize              int     `mapstructure:"chunk_size"`
	ChunkOverlap           int     `mapstructure:"chunk_overlap"`
	MaxResults             int     `mapstructure:"max_results"`
	DBPath                 string  `mapstructure:"db_path"`
	DocsPath               string  `mapstructure:"docs_path"`
	CourseMatchPolicy      string  `mapstructure:"course_match_policy"`
	CourseMatchMaxDistance float64 `mapstructure:"course_match_max_distance"`
	CourseMatchMinGap      float64 `mapstructure:"course_match_min_gap"`

	// Sessions
	MaxHistory     int    `mapstructure:"max_history"`
	HistoryBackend string `mapstructure:"history_backend"`
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`

	// Serving and logging
	HTTPAddr  string `mapstructure:"http_addr"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load reads .env, then configPath (optional), then the environment
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("openai_api_key", "OPENAI_API_KEY", EnvPrefix+"_OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("chat_model", "gpt-4o-mini")
	v.SetDefault("temperature", 0.0)
	v.SetDefault("max_tokens", 800)
	v.SetDefault("max_tool_rounds", 2)
	v.SetDefault("openai_timeout", 30*time.Second)
	v.SetDefault("openai_max_retries", 3)
	v.SetDefault("openai_retry_delay", 2*time.Second)

	v.SetDefault("embedding_provider", "openai")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("embedding_dimension", 384)

	v.SetDefault("chunk_size", 800)
	v.SetDefault("chunk_overlap", 100)
	v.SetDefault("max_results", 5)
	v.SetDefault("db_path", sqlite.DefaultDBPath())
	v.SetDefault("docs_path", "docs")
	v.SetDefault("course_match_policy", "threshold")
	v.SetDefault("course_match_max_distance", 0.6)
	v.SetDefault("course_match_min_gap", 0.05)

	v.SetDefault("max_history", 2)
	v.SetDefault("history_backend", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("http_addr", ":8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.ChunkSize > 0, "COURSEMATE_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	check(c.ChunkOverlap >= 0 && c.ChunkOverlap < c.ChunkSize,
		"COURSEMATE_CHUNK_OVERLAP must be in [0, chunk size), got %d", c.ChunkOverlap)
	check(c.MaxResults > 0, "COURSEMATE_MAX_RESULTS must be positive, got %d", c.MaxResults)
	check(c.MaxHistory >= 0, "COURSEMATE_MAX_HISTORY must not be negative, got %d", c.MaxHistory)
	check(c.MaxToolRounds > 0, "COURSEMATE_MAX_TOOL_ROUNDS must be positive, got %d", c.MaxToolRounds)
	check(c.MaxTokens > 0, "COURSEMATE_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	check(c.Temperature >= 0 && c.Temperature <= 2, "COURSEMATE_TEMPERATURE must be 0-2, got %g", c.Temperature)
	check(c.MaxRetries >= 0 && c.MaxRetries <= 10, "COURSEMATE_OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	check(oneOf(c.EmbeddingProvider, "openai", "hash"),
		"COURSEMATE_EMBEDDING_PROVIDER must be openai or hash, got %q", c.EmbeddingProvider)
	check(c.EmbeddingDimension > 0, "COURSEMATE_EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	check(oneOf(c.HistoryBackend, "memory", "sqlite", "redis"),
		"COURSEMATE_HISTORY_BACKEND must be memory, sqlite or redis, got %q", c.HistoryBackend)
	check(oneOf(c.CourseMatchPolicy, "threshold", "gap", "nearest"),
		"COURSEMATE_COURSE_MATCH_POLICY must be threshold, gap or nearest, got %q", c.CourseMatchPolicy)
	check(c.CourseMatchMaxDistance >= 0 && c.CourseMatchMaxDistance <= 2,
		"COURSEMATE_COURSE_MATCH_MAX_DISTANCE must be 0-2, got %g", c.CourseMatchMaxDistance)
	check(oneOf(c.LogFormat, "json", "console"), "COURSEMATE_LOG_FORMAT must be json or console, got %q", c.LogFormat)
	check(c.DBPath != "", "COURSEMATE_DB_PATH must not be empty")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", models.ErrInvalidConfig, errors.Join(errs...))
}

// RequireOpenAIKey reports a missing key for commands that call OpenAI
func (c *Config) RequireOpenAIKey() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY environment variable not set", models.ErrInvalidConfig)
	}
	return nil
}

// UsesOpenAIEmbeddings reports whether embeddings need the OpenAI API
func (c *Config) UsesOpenAIEmbeddings() bool {
	return c.EmbeddingProvider == "openai"
}

// DataDir returns the directory holding the database file
func (c *Config) DataDir() string {
	return filepath.Dir(c.DBPath)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
