package ementa

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/estatuto/internal/oracle"
)

// NotFoundSentinel is what the oracle answers when the page has no ementa
const NotFoundSentinel = "NOT_FOUND"

const ementaSystem = `Você é um assistente que extrai a ementa de atos normativos brasileiros.
A ementa é o parágrafo curto que resume o objeto do ato, normalmente iniciado por um verbo
como "Dispõe", "Altera", "Institui" ou "Estabelece". Responda somente com o texto exato da
ementa, sem aspas e sem comentários. Se não houver ementa, responda apenas NOT_FOUND.`

// OracleExtractor asks the completion oracle for the ementa
type OracleExtractor struct {
	caller      oracle.Caller
	prefixChars int
}

// NewOracleExtractor sends at most prefixChars bytes of the page per call
func NewOracleExtractor(caller oracle.Caller, prefixChars int) *OracleExtractor {
	if prefixChars <= 0 {
		prefixChars = 15000
	}
	return &OracleExtractor{caller: caller, prefixChars: prefixChars}
}

// Name implements Strategy
func (o *OracleExtractor) Name() string {
	return "oracle"
}

// Extract implements Strategy. Oracle failures are returned as-is so the
// caller can tell an unavailable oracle from a page without an ementa.
func (o *OracleExtractor) Extract(ctx context.Context, html, label string) (string, error) {
	if o.caller == nil {
		return "", fmt.Errorf("%w: no oracle configured", oracle.ErrOracleUnavailable)
	}

	prompt := fmt.Sprintf("Ato: %s\n\nHTML (trecho inicial):\n%s", label, Truncate(html, o.prefixChars))
	answer, err := o.caller.Call(ctx, oracle.Request{
		Task:      "ementa",
		System:    ementaSystem,
		Prompt:    prompt,
		MaxTokens: 600,
	})
	if err != nil {
		return "", err
	}

	text := clean(strings.TrimPrefix(strings.TrimSpace(answer), "Ementa:"))

	switch {
	case text == "" || strings.Contains(strings.ToUpper(text), NotFoundSentinel):
		return "", ErrNotFound
	case utf8.RuneCountInString(text) < minOracleLength:
		return "", fmt.Errorf("%w: oracle answer too short (%q)", ErrNotFound, text)
	case utf8.RuneCountInString(text) > MaxLength:
		return "", fmt.Errorf("%w: oracle answer too long", ErrNotFound)
	case IsActTitle(text) || strings.EqualFold(text, strings.TrimSpace(label)):
		return "", fmt.Errorf("%w: oracle restated the act title", ErrNotFound)
	}
	return text, nil
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
