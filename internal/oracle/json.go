package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the first syntactically valid JSON object or array
// embedded in text. Models often wrap the payload in prose or code fences.
func ExtractJSON(text string) (string, error) {
	for start := 0; start < len(text); start++ {
		c := text[start]
		if c != '{' && c != '[' {
			continue
		}
		end := matchingClose(text, start)
		if end < 0 {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no JSON payload in %d bytes", ErrMalformedResponse, len(text))
}

// matchingClose returns the index of the bracket closing text[start], or -1.
// Brackets inside string literals are ignored.
func matchingClose(text string, start int) int {
	var stack []byte
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != ch {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// DecodeJSON extracts the payload from text and unmarshals it into v
func DecodeJSON(text string, v any) error {
	payload, err := ExtractJSON(strings.TrimSpace(text))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
