package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
)

// RetryConfig configures retry behavior for embedding calls during batch
// ingest. Only the ingest path retries; a repeated embedding there cannot
// duplicate anything a client sees.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns sensible defaults for embedding API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by category. Matched
// case-insensitively against err.Error().
//
// String matching is used because Genkit and LLM provider SDKs do not
// expose typed errors for transient failures.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429"},      // rate limiting
	{"500", "502", "503", "504", "unavailable"},  // transient server errors
	{"connection reset", "timeout", "temporary"}, // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, group := range retryablePatterns {
		if containsAny(errStr, group...) {
			return true
		}
	}
	return false
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// embedWithRetry embeds text with exponential backoff on transient errors.
// Each attempt gets a fresh EmbedTimeout deadline.
func (s *Store) embedWithRetry(ctx context.Context, text string) (pgvector.Vector, error) {
	var lastErr error
	delay := s.retryConfig.InitialInterval

	for attempt := 0; attempt <= s.retryConfig.MaxRetries; attempt++ {
		embedCtx, cancel := context.WithTimeout(ctx, EmbedTimeout)
		vec, err := s.embed(embedCtx, text)
		cancel()
		if err == nil {
			return vec, nil
		}

		lastErr = err

		if !retryableError(err) {
			return pgvector.Vector{}, err
		}

		if attempt == s.retryConfig.MaxRetries {
			break
		}

		s.logger.Debug("retrying embedding after error",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return pgvector.Vector{}, fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, s.retryConfig.MaxInterval)
		}
	}

	return pgvector.Vector{}, fmt.Errorf("embedding after %d retries: %w",
		s.retryConfig.MaxRetries, lastErr)
}
