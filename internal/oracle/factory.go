package oracle

import (
	"fmt"
	"strings"

	"github.com/ppiankov/estatuto/internal/model"
)

// NewProvider creates a provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		// No provider configured - return nil (oracle disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to oracle.Config
func ConfigFromModel(llm model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:   llm.Provider,
		Model:      llm.Model,
		BaseURL:    llm.BaseURL,
		Timeout:    llm.Timeout,
		MaxTokens:  llm.MaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	}
}

// Factory builds a provider for one credential of the pool
type Factory func(cred model.Credential) (Provider, error)

// DefaultFactory overlays each credential on a base configuration
func DefaultFactory(base Config) Factory {
	return func(cred model.Credential) (Provider, error) {
		cfg := base
		if cred.Provider != "" {
			cfg.Provider = cred.Provider
		}
		if cred.Model != "" {
			cfg.Model = cred.Model
		}
		if cred.BaseURL != "" {
			cfg.BaseURL = cred.BaseURL
		}
		cfg.APIKey = cred.APIKey

		p, err := NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("credential has no provider")
		}
		return p, nil
	}
}
