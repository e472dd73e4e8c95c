package oracle

import (
	"testing"

	"github.com/ppiankov/estatuto/internal/model"
)

func TestResolveCredentials_EnvOrder(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "k1")
	t.Setenv("OPENAI_API_KEY_2", "k2")
	t.Setenv("OPENAI_API_KEY_3", "k3")
	t.Setenv("OPENAI_API_KEY_5", "skipped")

	got := ResolveCredentials(model.LLMConfig{
		Provider:    "openai",
		Credentials: []model.Credential{{APIKey: "from-config"}, {APIKey: "k2"}},
	})

	want := []string{"from-config", "k2", "k1", "k3"}
	if len(got) != len(want) {
		t.Fatalf("got %d credentials (%+v), want %d", len(got), got, len(want))
	}
	for i, w := range want {
		if got[i].APIKey != w {
			t.Errorf("credential %d = %q, want %q", i, got[i].APIKey, w)
		}
		if got[i].Provider != "openai" {
			t.Errorf("credential %d provider = %q", i, got[i].Provider)
		}
	}
}

func TestResolveCredentials_Anthropic(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY_2", "a2")

	got := ResolveCredentials(model.LLMConfig{Provider: "anthropic"})
	if len(got) != 1 || got[0].APIKey != "a2" {
		t.Fatalf("got %+v", got)
	}
}

func TestResolveCredentials_OllamaKeyless(t *testing.T) {
	got := ResolveCredentials(model.LLMConfig{Provider: "ollama", BaseURL: "http://gpu:11434"})
	if len(got) != 1 || got[0].BaseURL != "http://gpu:11434" || got[0].APIKey != "" {
		t.Fatalf("got %+v", got)
	}
}

func TestResolveCredentials_Disabled(t *testing.T) {
	if got := ResolveCredentials(model.LLMConfig{}); got != nil {
		t.Fatalf("got %+v", got)
	}
}
