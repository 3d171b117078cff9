package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for rfp-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI backend configuration
	AI AIConfig `yaml:"ai"`

	// Extraction pipeline configuration
	Extraction ExtractionConfig `yaml:"extraction"`

	// Knowledge context selection configuration
	Knowledge KnowledgeConfig `yaml:"knowledge"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"rfp"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"rfp_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// AIConfig holds primary model backend configuration.
type AIConfig struct {
	// Provider selects the primary backend: "openai" (any OpenAI-compatible
	// endpoint) or "anthropic". Empty means no primary backend; every call
	// uses the local fallback.
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`

	// Endpoint is the base URL for OpenAI-compatible providers.
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://api.openai.com/v1"`

	// Model is the model name used for extraction and generation.
	Model string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o"`

	// API keys - secrets, environment only.
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`

	// CallTimeoutSeconds bounds each primary backend call.
	CallTimeoutSeconds int `yaml:"call_timeout_seconds" env:"AI_CALL_TIMEOUT_SECONDS" env-default:"60"`

	// MaxRetries bounds retries of transient primary failures before
	// falling back to the local backend.
	MaxRetries int `yaml:"max_retries" env:"AI_MAX_RETRIES" env-default:"2"`
}

// CallTimeout returns the configured call timeout as a duration.
func (c *AIConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// ExtractionConfig tunes the question extraction pipeline.
type ExtractionConfig struct {
	// MaxPromptChars bounds how much document text is embedded in an
	// extraction prompt.
	MaxPromptChars int `yaml:"max_prompt_chars" env:"EXTRACTION_MAX_PROMPT_CHARS" env-default:"8000"`

	// BulkWorkers is the number of documents processed concurrently by
	// bulk extraction.
	BulkWorkers int `yaml:"bulk_workers" env:"EXTRACTION_BULK_WORKERS" env-default:"4"`

	// QuestionMarkersStr is a comma-separated override of the fallback
	// detector's marker set, for localized deployments. Empty keeps the
	// built-in English markers.
	QuestionMarkersStr string `yaml:"question_markers" env:"EXTRACTION_QUESTION_MARKERS" env-default:""`

	// StopwordsStr is a comma-separated override of the fallback detector's
	// stopword set. Empty keeps the built-in English stopwords.
	StopwordsStr string `yaml:"stopwords" env:"EXTRACTION_STOPWORDS" env-default:""`
}

// QuestionMarkers returns the parsed marker override, or nil when unset.
func (c *ExtractionConfig) QuestionMarkers() []string {
	return splitCommaList(c.QuestionMarkersStr)
}

// Stopwords returns the parsed stopword override, or nil when unset.
func (c *ExtractionConfig) Stopwords() []string {
	return splitCommaList(c.StopwordsStr)
}

// KnowledgeConfig tunes knowledge context selection.
type KnowledgeConfig struct {
	// SnippetLimit is the default number of context snippets selected per
	// generation.
	SnippetLimit int `yaml:"snippet_limit" env:"KNOWLEDGE_SNIPPET_LIMIT" env-default:"3"`

	// SnippetMaxChars bounds the content prefix included in each snippet.
	SnippetMaxChars int `yaml:"snippet_max_chars" env:"KNOWLEDGE_SNIPPET_MAX_CHARS" env-default:"500"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}
	if c.Extraction.BulkWorkers <= 0 {
		return fmt.Errorf("extraction bulk_workers must be positive")
	}
	if c.Knowledge.SnippetLimit <= 0 {
		return fmt.Errorf("knowledge snippet_limit must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func splitCommaList(value string) []string {
	if value == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
