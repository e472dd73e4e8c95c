package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	tagLike        = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)
	entityLike     = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z]+);`)
	mdHeading      = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	mdEmphasis     = regexp.MustCompile(`\*\*+|__+|` + "`+")
	horizontalRuns = regexp.MustCompile(`[ \t\f\v]+`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// invisible and exotic spaces folded to a plain space or removed
var spaceReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u00a0", " ",
	"\u2002", " ",
	"\u2003", " ",
	"\u2009", " ",
	"\u202f", " ",
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "ul": true, "ol": true, "blockquote": true,
	"section": true, "article": true, "header": true, "footer": true,
	"center": true, "pre": true, "hr": true, "dd": true, "dt": true,
}

// Options configures a Normalizer. The abbreviation table is copied at
// construction; later changes to the caller's map have no effect.
type Options struct {
	Abbreviations map[string]string
}

// Normalizer cleans raw legislative text. It is immutable and safe for
// concurrent use.
type Normalizer struct {
	abbrevs  map[string]string
	abbrevRe *regexp.Regexp
}

// New creates a normalizer. With an empty abbreviation table it is the
// structuring normalizer: whitespace, markup and entities only.
func New(opts Options) *Normalizer {
	n := &Normalizer{}
	if len(opts.Abbreviations) == 0 {
		return n
	}

	n.abbrevs = make(map[string]string, len(opts.Abbreviations))
	keys := make([]string, 0, len(opts.Abbreviations))
	for k, v := range opts.Abbreviations {
		if k == "" {
			continue
		}
		n.abbrevs[k] = v
		keys = append(keys, k)
	}
	// Longest first so "Arts." wins over "Art." and "§§" over "§"
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	n.abbrevRe = regexp.MustCompile(strings.Join(quoted, "|"))
	return n
}

// ForSpeech returns a normalizer that also expands legal abbreviations,
// for text that will be read aloud.
func ForSpeech(table map[string]string) *Normalizer {
	return New(Options{Abbreviations: table})
}

var structuring = New(Options{})

// Normalize applies the structuring normalizer (no abbreviation expansion)
func Normalize(raw string) string {
	return structuring.Normalize(raw)
}

// Normalize strips markup, decodes entities, composes Unicode and collapses
// whitespace. Paragraph breaks survive as at most one blank line.
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	out := raw
	// every pass that decodes an entity or strips a tag shrinks the text, so
	// the fixed point is reached within len(raw) passes
	for i := 0; i <= len(raw)+1; i++ {
		next := n.pass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func (n *Normalizer) pass(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = spaceReplacer.Replace(s)

	if tagLike.MatchString(s) {
		s = stripHTML(s)
	} else if entityLike.MatchString(s) {
		s = html.UnescapeString(s)
		s = spaceReplacer.Replace(s)
	}

	s = norm.NFC.String(s)
	s = mdHeading.ReplaceAllString(s, "")
	s = mdEmphasis.ReplaceAllString(s, "")

	if n.abbrevRe != nil {
		s = n.expand(s)
	}

	return collapse(s)
}

// stripHTML renders the text content of an HTML document or fragment.
// Source line breaks inside text are layout only; block elements start new lines.
func stripHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return spaceReplacer.Replace(b.String())
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.ReplaceAll(string(z.Text()), "\n", " ")
			b.WriteString(text)
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				skipDepth++
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			} else if tag == "td" || tag == "th" {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if skipTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if skipDepth == 0 && blockTags[string(name)] {
				b.WriteByte('\n')
			}
		}
	}
}

func collapse(s string) string {
	s = horizontalRuns.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// expand replaces whole-token abbreviations from the table
func (n *Normalizer) expand(s string) string {
	matches := n.abbrevRe.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if !boundaryBefore(s, start) || !boundaryAfter(s, end, s[start:end]) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(n.abbrevs[s[start:end]])
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int, token string) bool {
	if i >= len(s) {
		return true
	}
	// tokens ending in punctuation ("Art.", "§") may be glued to what follows
	tail, _ := utf8.DecodeLastRuneInString(token)
	if !isWordRune(tail) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
