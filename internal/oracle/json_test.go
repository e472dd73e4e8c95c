package oracle

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare object", input: `{"a":1}`, want: `{"a":1}`},
		{name: "bare array", input: `[{"order":3}]`, want: `[{"order":3}]`},
		{
			name:  "prose around payload",
			input: "Claro! Segue o resultado:\n{\"replacements\":[{\"order\":4,\"text\":\"Art. 2º ...\"}]}\nEspero ter ajudado.",
			want:  `{"replacements":[{"order":4,"text":"Art. 2º ..."}]}`,
		},
		{
			name:  "code fence",
			input: "```json\n{\"additions\":[]}\n```",
			want:  `{"additions":[]}`,
		},
		{
			name:  "braces inside strings",
			input: `resposta: {"text":"inciso } fechado { aberto \" aspas"}`,
			want:  `{"text":"inciso } fechado { aberto \" aspas"}`,
		},
		{
			name:  "invalid candidate skipped",
			input: `{nota: sem aspas} depois {"ok":true}`,
			want:  `{"ok":true}`,
		},
		{
			name:  "bracket in prose before object",
			input: `Ver item [1] e {"x":[1,2]}`,
			want:  `[1]`,
		},
		{name: "truncated", input: `{"replacements":[{"order":1`, wantErr: true},
		{name: "none", input: "NOT_FOUND", wantErr: true},
		{name: "mismatched", input: `{"a":[1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Fatalf("expected ErrMalformedResponse, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Replacements []struct {
			Order int    `json:"order"`
			Text  string `json:"text"`
		} `json:"replacements"`
	}
	if err := DecodeJSON("ok: {\"replacements\":[{\"order\":2,\"text\":\"t\"}]}", &v); err != nil {
		t.Fatal(err)
	}
	if len(v.Replacements) != 1 || v.Replacements[0].Order != 2 {
		t.Errorf("decoded %+v", v)
	}

	var wrongShape []int
	if err := DecodeJSON(`{"a":1}`, &wrongShape); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}
