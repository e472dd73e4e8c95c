package segment

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Ordinal is the masculine ordinal indicator used on numbers 1-9
const Ordinal = "º"

// FormatNumber renders a legislative number: 1-9 carry the ordinal mark,
// 10 and above never do; thousands are dot-separated ("1.024").
func FormatNumber(n int) string {
	if n >= 1 && n <= 9 {
		return strconv.Itoa(n) + Ordinal
	}
	return groupThousands(n)
}

// FormatArticle renders an article label such as "Art. 7º-A" or "Art. 10"
func FormatArticle(n int, suffix string) string {
	label := "Art. " + FormatNumber(n)
	if suffix != "" {
		label += "-" + strings.ToUpper(suffix)
	}
	return label
}

// FormatParagraph renders a paragraph label such as "§ 2º" or "§ 11"
func FormatParagraph(n int) string {
	return "§ " + FormatNumber(n)
}

// UniqueParagraph is the label of a sole paragraph
const UniqueParagraph = "Parágrafo único"

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if n < 1000 || n < 0 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// parseDigits parses "1.024" or "15" into an int
func parseDigits(s string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ".", ""))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

var articleLabelRe = regexp.MustCompile(`^(?:Art|ART|art)\.?[ \t]*(\d{1,3}(?:\.\d{3})+|\d+)(?:[ \t]*[º°ª]|o\b)?(?:[-–]([A-Za-z]{1,2})\b)?`)

// ParseArticle extracts the base number and letter suffix from an article
// label or from text that starts with an article marker.
func ParseArticle(s string) (n int, suffix string, ok bool) {
	m := articleLabelRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, "", false
	}
	n, ok = parseDigits(m[1])
	if !ok {
		return 0, "", false
	}
	return n, strings.ToUpper(m[2]), true
}

// NormalizeArticleLabel re-renders any article marker in canonical form
func NormalizeArticleLabel(s string) (string, bool) {
	n, suffix, ok := ParseArticle(s)
	if !ok {
		return "", false
	}
	return FormatArticle(n, suffix), true
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// ParseRoman parses a canonical upper-case roman numeral
func ParseRoman(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanValues[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 || FormatRoman(total) != s {
		return 0, false
	}
	return total, true
}

// FormatRoman renders n as an upper-case roman numeral
func FormatRoman(n int) string {
	steps := []struct {
		v int
		s string
	}{
		{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
		{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
		{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
	}
	var b strings.Builder
	for _, st := range steps {
		for n >= st.v {
			b.WriteString(st.s)
			n -= st.v
		}
	}
	return b.String()
}

// Canonical state markers kept by the parenthetical filter
var StateMarkers = []string{
	"(Vetado)", "(Vetada)",
	"(Revogado)", "(Revogada)",
	"(Suprimido)", "(Suprimida)",
	"(Prejudicado)", "(Prejudicada)",
}

// IsStateMarker reports whether s is exactly one canonical state marker
func IsStateMarker(s string) bool {
	s = strings.TrimSpace(s)
	for _, m := range StateMarkers {
		if s == m {
			return true
		}
	}
	return false
}

var stateStems = []struct {
	stem      string
	masculine string
	feminine  string
}{
	{"vetad", "(Vetado)", "(Vetada)"},
	{"revogad", "(Revogado)", "(Revogada)"},
	{"suprimid", "(Suprimido)", "(Suprimida)"},
	{"prejudicad", "(Prejudicado)", "(Prejudicada)"},
}

// canonicalState maps parenthetical content to a canonical marker, if it
// announces a legal state
func canonicalState(content string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(content))
	c = strings.TrimLeft(c, "\"'“ ")
	for _, st := range stateStems {
		if !strings.HasPrefix(c, st.stem) {
			continue
		}
		rest := c[len(st.stem):]
		if strings.HasPrefix(rest, "a") {
			return st.feminine, true
		}
		return st.masculine, true
	}
	return "", false
}

var amendmentNote = regexp.MustCompile(`(?i)(\blei\b|\bmedida\b|\bdecreto|\bemenda\b|inclu[íi]d|reda[çc][ãa]o|\bvide\b|vig[êe]ncia|regulamento|produ[çc][ãa]o de efeito|renumerad|acrescid|revigorad|\badin?\b)`)

var (
	spaceRuns      = regexp.MustCompile(`\s+`)
	spaceBeforePct = regexp.MustCompile(` +([,.;:])`)
)

// CleanParentheticals filters parenthetical annotations at nesting depth
// zero. State notes ("Revogado pela Lei ...") become their canonical marker.
// Everything else is removed, or with keepPlain only amendment-history notes
// are removed. Unbalanced parentheses are left untouched.
func CleanParentheticals(s string, keepPlain bool) string {
	if !strings.Contains(s, "(") {
		return tidy(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	open := -1
	last := 0
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				open = i
			}
			depth++
		case ')':
			if depth == 0 {
				continue
			}
			depth--
			if depth > 0 {
				continue
			}
			content := s[open+1 : i]
			b.WriteString(s[last:open])
			if marker, ok := canonicalState(content); ok {
				b.WriteString(marker)
			} else if keepPlain && !amendmentNote.MatchString(content) {
				b.WriteString(s[open : i+1])
			}
			last = i + 1
			open = -1
		}
	}
	b.WriteString(s[last:])
	return tidy(b.String())
}

func tidy(s string) string {
	s = spaceRuns.ReplaceAllString(s, " ")
	s = spaceBeforePct.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// isAllCaps reports whether s has letters and none of them is lower case
func isAllCaps(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			letters++
		}
	}
	return letters > 0
}
