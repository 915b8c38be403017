package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.PolicyDir == "" {
		return fmt.Errorf("%w: policy_dir cannot be empty", ErrInvalidDataDir)
	}
	if c.DocumentDir == "" {
		return fmt.Errorf("%w: document_dir cannot be empty", ErrInvalidDataDir)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml",
			ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "dormra_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}
	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Modern SSL modes only. The deprecated allow/prefer modes are
	// vulnerable to MITM downgrade.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if c.PostgresSSLMode == "" {
		return fmt.Errorf("%w: postgres_ssl_mode is empty (should have default from setDefaults)",
			ErrInvalidPostgresSSLMode)
	}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	if c.RateLimit < 1 || c.RateLimit > 10000 {
		return fmt.Errorf("%w: rate_limit must be between 1 and 10000, got %d",
			ErrInvalidRateLimit, c.RateLimit)
	}
	if c.RateWindowSeconds < 1 || c.RateWindowSeconds > 3600 {
		return fmt.Errorf("%w: rate_window_seconds must be between 1 and 3600, got %d",
			ErrInvalidRateLimit, c.RateWindowSeconds)
	}

	return nil
}
