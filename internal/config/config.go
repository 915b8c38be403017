// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.dormra/config.yaml)
//  3. Default values
//
// Security: sensitive data (passwords) are never logged; the config
// directory uses 0750 permissions. Sentinel errors support errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidRateLimit indicates the rate limit settings are out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidDataDir indicates a data directory path is invalid.
	ErrInvalidDataDir = errors.New("invalid data directory")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions via
	// OutputDimensionality, which matches the pgvector schema; see
	// knowledge.VectorDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultRateLimit is the per-client request allowance per window.
	DefaultRateLimit = 25

	// DefaultRateWindowSeconds is the sliding window length.
	DefaultRateWindowSeconds = 60
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// AI provider and model configuration
	Provider  string `mapstructure:"provider" json:"provider"`
	ModelName string `mapstructure:"model_name" json:"model_name"`

	// Embedding configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Knowledge data directories
	PolicyDir   string `mapstructure:"policy_dir" json:"policy_dir"`     // structured JSON documents
	DocumentDir string `mapstructure:"document_dir" json:"document_dir"` // extracted document text for the vector index

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // trust X-Real-IP/X-Forwarded-For when behind a reverse proxy
	Dev         bool     `mapstructure:"dev" json:"dev"`                 // local development mode, disables HSTS

	// Inbound rate limiting (per client IP)
	RateLimit         int `mapstructure:"rate_limit" json:"rate_limit"`
	RateWindowSeconds int `mapstructure:"rate_window_seconds" json:"rate_window_seconds"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".dormra")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults carry a local dev setup.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has the highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)

	viper.SetDefault("policy_dir", "data/policies")
	viper.SetDefault("document_dir", "data/documents")

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "dormra")
	viper.SetDefault("postgres_password", "dormra_dev_password")
	viper.SetDefault("postgres_db_name", "dormra")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("dev", false)

	viper.SetDefault("rate_limit", DefaultRateLimit)
	viper.SetDefault("rate_window_seconds", DefaultRateWindowSeconds)
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by Genkit, not via Viper; Validate()
// checks its presence.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "DORMRA_PROVIDER")
	mustBind("model_name", "DORMRA_MODEL_NAME")
	mustBind("embedder_model", "DORMRA_EMBEDDER_MODEL")
	mustBind("policy_dir", "DORMRA_POLICY_DIR")
	mustBind("document_dir", "DORMRA_DOCUMENT_DIR")
	mustBind("listen_addr", "DORMRA_LISTEN_ADDR")
	mustBind("cors_origins", "DORMRA_CORS_ORIGINS")
	mustBind("trust_proxy", "DORMRA_TRUST_PROXY")
	mustBind("dev", "DORMRA_DEV")
	mustBind("rate_limit", "DORMRA_RATE_LIMIT")
	mustBind("rate_window_seconds", "DORMRA_RATE_WINDOW_SECONDS")
}

// RateWindow returns the sliding window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSeconds) * time.Second
}

// FullModelName returns the provider-qualified model name for Genkit,
// e.g. "googleai/gemini-2.5-flash". A ModelName already containing "/" is
// returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return ProviderGoogleAI + "/" + c.ModelName
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid accidental substring matches against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 bytes or
// fewer are fully masked; longer ones show the first and last 2 characters
// for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
