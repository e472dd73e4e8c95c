package oracle

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrOracleUnavailable means every credential failed or timed out
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrRateLimited marks a provider rate-limit response (HTTP 429)
	ErrRateLimited = errors.New("oracle rate limited")

	// ErrMalformedResponse means the response carried no usable payload
	ErrMalformedResponse = errors.New("malformed oracle response")
)

// Provider is a text-in/text-out completion backend
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one bounded prompt and returns the model's text
	Complete(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request is one oracle call
type Request struct {
	// Task names the calling stage ("ementa", "correct") for cache keys and logs
	Task string

	// System is the instruction preamble
	System string

	// Prompt is the user content, already truncated by the caller
	Prompt string

	// Model overrides the provider's configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// JSON asks for a structured payload. Providers that support it switch
	// to JSON mode; callers still run ExtractJSON on the answer.
	JSON bool
}

// Response is the oracle's answer
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Caller is what pipeline stages depend on: one prompt in, one text out
type Caller interface {
	Call(ctx context.Context, req Request) (string, error)
}

// CallerFunc adapts a function to Caller
type CallerFunc func(ctx context.Context, req Request) (string, error)

// Call implements Caller
func (f CallerFunc) Call(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for one API request
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   60 * time.Second,
		MaxTokens: 4000,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

func (c Config) maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}
