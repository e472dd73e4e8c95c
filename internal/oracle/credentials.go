package oracle

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/estatuto/internal/model"
)

// maxEnvKeys bounds how far OPENAI_API_KEY_<n> is probed
const maxEnvKeys = 9

// ResolveCredentials returns the ordered credential pool. Credentials listed in
// config come first, then numbered environment keys for the configured
// provider (OPENAI_API_KEY, OPENAI_API_KEY_2, ...). Ollama needs no key, so a
// single keyless credential is returned for it.
func ResolveCredentials(cfg model.LLMConfig) []model.Credential {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		return nil
	}

	var creds []model.Credential
	seen := map[string]bool{}
	add := func(c model.Credential) {
		id := c.Provider + "\x00" + c.APIKey + "\x00" + c.BaseURL
		if seen[id] {
			return
		}
		seen[id] = true
		creds = append(creds, c)
	}

	for _, c := range cfg.Credentials {
		if c.Provider == "" {
			c.Provider = provider
		}
		add(c)
	}

	prefix := envPrefix(provider)
	if prefix != "" {
		for i := 1; i <= maxEnvKeys; i++ {
			name := prefix
			if i > 1 {
				name = fmt.Sprintf("%s_%d", prefix, i)
			}
			key := strings.TrimSpace(os.Getenv(name))
			if key == "" {
				if i > 1 {
					break
				}
				continue
			}
			add(model.Credential{Provider: provider, APIKey: key})
		}
	}

	if len(creds) == 0 && provider == "ollama" {
		add(model.Credential{Provider: provider, BaseURL: cfg.BaseURL})
	}
	return creds
}

func envPrefix(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	}
	return ""
}
