package ementa

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinLength and MaxLength bound a deterministic candidate, in characters
	MinLength = 30
	MaxLength = 2000

	// minOracleLength is the shortest oracle answer taken seriously
	minOracleLength = 20
)

// actTitle matches an act restating its own name ("Lei nº 15.290", "LEI COMPLEMENTAR Nº 101")
var actTitle = regexp.MustCompile(`(?i)^(?:lei(?:[ \t]+complementar)?|decreto(?:-lei)?|medida[ \t]+provis[óo]ria|emenda[ \t]+constitucional|projeto[ \t]+de[ \t]+lei(?:[ \t]+complementar)?)[ \t]+(?:n[º°o.]|n\.º|número)`)

// boilerplate opens the enactment formula rather than the abstract
var boilerplate = []string{
	"O PRESIDENTE DA REPÚBLICA",
	"A PRESIDENTA DA REPÚBLICA",
	"O VICE-PRESIDENTE DA REPÚBLICA",
	"FAÇO SABER",
	"O CONGRESSO NACIONAL",
	"AS MESAS DA CÂMARA DOS DEPUTADOS",
	"O PRESIDENTE DO CONGRESSO NACIONAL",
	"O PRESIDENTE DA CÂMARA DOS DEPUTADOS",
}

func clean(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, `"“”'`+" ")
}

// Accept applies the deterministic filters and returns the cleaned candidate
func Accept(candidate string) (string, bool) {
	text := clean(candidate)
	n := utf8.RuneCountInString(text)
	if n < MinLength || n > MaxLength {
		return "", false
	}
	if strings.HasPrefix(text, "(") {
		return "", false
	}
	if IsActTitle(text) || IsBoilerplate(text) {
		return "", false
	}
	return text, true
}

// IsActTitle reports whether s starts like an act's own title
func IsActTitle(s string) bool {
	return actTitle.MatchString(strings.TrimSpace(s))
}

// IsBoilerplate reports whether s opens the presidential enactment formula
func IsBoilerplate(s string) bool {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, prefix := range boilerplate {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
