// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies defaults, environment overrides, config files and validation
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/coursemate/internal/models"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment to test defaults
	os.Clearenv()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %s, want gpt-4o-mini", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("EmbeddingModel = %s, want text-embedding-3-small", cfg.EmbeddingModel)
	}
	if cfg.Temperature != 0 || cfg.MaxTokens != 800 || cfg.MaxToolRounds != 2 {
		t.Errorf("generation defaults = %g/%d/%d, want 0/800/2", cfg.Temperature, cfg.MaxTokens, cfg.MaxToolRounds)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", cfg.RetryDelay)
	}
	if cfg.ChunkSize != 800 || cfg.ChunkOverlap != 100 {
		t.Errorf("chunking = %d/%d, want 800/100", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.MaxResults != 5 || cfg.MaxHistory != 2 {
		t.Errorf("MaxResults/MaxHistory = %d/%d, want 5/2", cfg.MaxResults, cfg.MaxHistory)
	}
	if cfg.CourseMatchPolicy != "threshold" || cfg.CourseMatchMaxDistance != 0.6 {
		t.Errorf("course match = %s/%g, want threshold/0.6", cfg.CourseMatchPolicy, cfg.CourseMatchMaxDistance)
	}
	if cfg.HistoryBackend != "memory" || cfg.HTTPAddr != ":8000" || cfg.DocsPath != "docs" {
		t.Errorf("unexpected serving defaults: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.DBPath, filepath.Join("coursemate", "coursemate.db")) {
		t.Errorf("DBPath = %s, want .../coursemate/coursemate.db", cfg.DBPath)
	}
	if cfg.OpenAIKey != "" {
		t.Errorf("OpenAIKey = %q, want empty", cfg.OpenAIKey)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COURSEMATE_CHAT_MODEL", "gpt-4o")
	t.Setenv("COURSEMATE_CHUNK_SIZE", "500")
	t.Setenv("COURSEMATE_CHUNK_OVERLAP", "50")
	t.Setenv("COURSEMATE_OPENAI_TIMEOUT", "1m")
	t.Setenv("COURSEMATE_EMBEDDING_PROVIDER", "hash")
	t.Setenv("COURSEMATE_DB_PATH", "/tmp/cm/test.db")
	t.Setenv("COURSEMATE_MAX_HISTORY", "0")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.OpenAIKey != "sk-test" {
		t.Errorf("OpenAIKey = %q, want sk-test", cfg.OpenAIKey)
	}
	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %s, want gpt-4o", cfg.ChatModel)
	}
	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d, want 500/50", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", cfg.Timeout)
	}
	if cfg.UsesOpenAIEmbeddings() {
		t.Error("expected hash embeddings")
	}
	if cfg.DataDir() != "/tmp/cm" {
		t.Errorf("DataDir = %s, want /tmp/cm", cfg.DataDir())
	}
	if cfg.MaxHistory != 0 {
		t.Errorf("MaxHistory = %d, want 0", cfg.MaxHistory)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "coursemate.yaml")
	content := "chat_model: gpt-4.1-mini\nmax_results: 8\ndb_path: /tmp/cm/file.db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("COURSEMATE_MAX_RESULTS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.ChatModel != "gpt-4.1-mini" {
		t.Errorf("ChatModel = %s, want value from file", cfg.ChatModel)
	}
	if cfg.MaxResults != 3 {
		t.Errorf("MaxResults = %d, want environment to win over file", cfg.MaxResults)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ChatModel: "gpt-4o-mini", MaxTokens: 800, MaxToolRounds: 2, MaxRetries: 3,
			EmbeddingProvider: "openai", EmbeddingDimension: 384,
			ChunkSize: 800, ChunkOverlap: 100, MaxResults: 5, MaxHistory: 2,
			HistoryBackend: "memory", CourseMatchPolicy: "threshold", CourseMatchMaxDistance: 0.6,
			LogFormat: "json", DBPath: "/tmp/x.db",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"overlap equals size", func(c *Config) { c.ChunkOverlap = 800 }, "CHUNK_OVERLAP"},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0; c.ChunkOverlap = 0 }, "CHUNK_SIZE"},
		{"zero results", func(c *Config) { c.MaxResults = 0 }, "MAX_RESULTS"},
		{"negative history", func(c *Config) { c.MaxHistory = -1 }, "MAX_HISTORY"},
		{"zero rounds", func(c *Config) { c.MaxToolRounds = 0 }, "MAX_TOOL_ROUNDS"},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }, "MAX_RETRIES"},
		{"unknown provider", func(c *Config) { c.EmbeddingProvider = "ollama" }, "EMBEDDING_PROVIDER"},
		{"unknown backend", func(c *Config) { c.HistoryBackend = "etcd" }, "HISTORY_BACKEND"},
		{"unknown policy", func(c *Config) { c.CourseMatchPolicy = "fuzzy" }, "COURSE_MATCH_POLICY"},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, models.ErrInvalidConfig) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestRequireOpenAIKey(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireOpenAIKey(); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	cfg.OpenAIKey = "sk-x"
	if err := cfg.RequireOpenAIKey(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
