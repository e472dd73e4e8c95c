package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/estatuto/internal/model"
)

var (
	identificationLine = regexp.MustCompile(`(?i)^(?:lei|decreto-lei|decreto|medida provis[óo]ria|emenda constitucional|projeto de lei|ato institucional)(?:\s+complementar)?\s+n\.?\s*[º°o]?\s*\.?\s*\d`)
	institutionalLine  = regexp.MustCompile(`(?i)^(?:presid[êe]ncia da rep[úu]blica|casa civil|secretaria|subchefia|minist[ée]rio|gabinete|c[âa]mara dos deputados|senado federal|congresso nacional|rep[úu]blica federativa)`)
	preambleFormula    = regexp.MustCompile(`(?i)^(?:o presidente|a presidenta|o vice-presidente|o congresso nacional|as mesas|fa[çc]o saber|o governador)`)

	chapterHeading    = regexp.MustCompile(`^(?:T[ÍI]TULO|LIVRO|CAP[ÍI]TULO|PARTE|T[íi]tulo|Livro|Cap[íi]tulo|Parte)[ \t]+(?:[IVXLCDM]+|[ÚU]NIC[OA]|[Úú]nic[oa]|GERAL|ESPECIAL|Geral|Especial)\b`)
	sectionHeading    = regexp.MustCompile(`^(?:SE[ÇC][ÃA]O|Se[çc][ãa]o)[ \t]+(?:[IVXLCDM]+|[ÚU]NICA|[Úú]nica)\b`)
	subsectionHeading = regexp.MustCompile(`^(?:SUBSE[ÇC][ÃA]O|Subse[çc][ãa]o)[ \t]+(?:[IVXLCDM]+|[ÚU]NICA|[Úú]nica)\b`)
	headingName       = regexp.MustCompile(`^(?:D[oa]s?|DOS?|DAS?)\s`)

	dateLine       = regexp.MustCompile(`^[\p{Lu}][\p{L}.' -]{1,40},[ \t]*(?:em[ \t]+)?\d{1,2}[º°o]?[ \t]+de[ \t]+\p{L}+[ \t]+de[ \t]+\d{4}`)
	disclaimerLine = regexp.MustCompile(`(?i)^este texto n[ãa]o substitui`)
)

const minHeaderEmentaRunes = 20

type lineSpan struct {
	start int
	end   int
}

// lineSpans returns the trimmed, non-empty lines that begin at a line start
// inside [from, to)
func lineSpans(text string, from, to int) []lineSpan {
	var out []lineSpan
	pos := from
	for pos < to {
		end := to
		if nl := strings.IndexByte(text[pos:to], '\n'); nl >= 0 {
			end = pos + nl
		}
		if pos == 0 || text[pos-1] == '\n' {
			if s, e := trimSpan(text, pos, end); s < e {
				out = append(out, lineSpan{start: s, end: e})
			}
		}
		pos = end + 1
	}
	return out
}

type headerState int

const (
	stateHeader headerState = iota
	stateIdentified
	statePreamble
)

// headerCuts classifies the lines before the first article
func headerCuts(text string, from, to int) []cut {
	var cuts []cut
	state := stateHeader
	haveEmenta := false

	lines := lineSpans(text, from, to)
	for i := 0; i < len(lines); i++ {
		line := text[lines[i].start:lines[i].end]

		if kind, ok := headingKind(line); ok {
			cuts = append(cuts, cut{pos: lines[i].start, end: lines[i].end, kind: kind})
			if i+1 < len(lines) && foldable(text[lines[i+1].start:lines[i+1].end]) {
				i++
			}
			continue
		}

		var kind model.ElementKind
		switch {
		case identificationLine.MatchString(line):
			kind = model.KindActIdentification
			state = stateIdentified
		case !haveEmenta && isEmentaLine(line):
			kind = model.KindEmenta
			haveEmenta = true
		case preambleFormula.MatchString(line):
			kind = model.KindPreamble
			state = statePreamble
		case state == stateHeader && (institutionalLine.MatchString(line) || isAllCaps(line)):
			kind = model.KindInstitutionalHeader
		default:
			kind = model.KindPreamble
			state = statePreamble
		}

		// consecutive header or preamble lines form one element
		if kind == model.KindInstitutionalHeader || kind == model.KindPreamble {
			if n := len(cuts); n > 0 && cuts[n-1].kind == kind {
				continue
			}
		}
		cuts = append(cuts, cut{pos: lines[i].start, end: lines[i].end, kind: kind})
	}
	return cuts
}

func isEmentaLine(line string) bool {
	return model.StartsWithEmentaVerb(line) && utf8.RuneCountInString(line) >= minHeaderEmentaRunes
}

func headingKind(line string) (model.ElementKind, bool) {
	switch {
	case subsectionHeading.MatchString(line):
		return model.KindSubsectionTitle, true
	case sectionHeading.MatchString(line):
		return model.KindSectionTitle, true
	case chapterHeading.MatchString(line):
		return model.KindChapterTitle, true
	}
	return "", false
}

// foldable reports whether a line is the name line of a preceding heading,
// e.g. "DAS DISPOSIÇÕES PRELIMINARES" or "Da Organização"
func foldable(line string) bool {
	if _, ok := headingKind(line); ok {
		return false
	}
	if loc := articleAnchor.FindStringIndex(line); loc != nil && loc[0] == 0 {
		return false
	}
	if loc := itemAnchor.FindStringIndex(line); loc != nil && loc[0] == 0 {
		return false
	}
	if isAllCaps(line) {
		return true
	}
	return headingName.MatchString(line) &&
		!strings.HasSuffix(line, ".") &&
		utf8.RuneCountInString(line) <= 150
}

// headingCuts finds chapter/section/subsection lines in [from, to)
func headingCuts(text string, from, to int) []cut {
	var cuts []cut
	lines := lineSpans(text, from, to)
	for i := 0; i < len(lines); i++ {
		line := text[lines[i].start:lines[i].end]
		kind, ok := headingKind(line)
		if !ok {
			continue
		}
		cuts = append(cuts, cut{pos: lines[i].start, end: lines[i].end, kind: kind})
		if i+1 < len(lines) && foldable(text[lines[i+1].start:lines[i+1].end]) {
			i++
		}
	}
	return cuts
}

// trailerCuts splits the enactment date line and the signature block off
// the last article. It returns where the trailer starts (len(text) if none).
func trailerCuts(text string, from int) (int, []cut) {
	lines := lineSpans(text, from, len(text))
	first := -1
	for i, ln := range lines {
		line := text[ln.start:ln.end]
		if dateLine.MatchString(line) || disclaimerLine.MatchString(line) {
			first = i
			break
		}
	}
	if first < 0 {
		return len(text), nil
	}

	cuts := make([]cut, 0, len(lines)-first)
	for i := first; i < len(lines); i++ {
		kind := model.KindSignatureLine
		if i == first && dateLine.MatchString(text[lines[i].start:lines[i].end]) {
			kind = model.KindDateLine
		}
		cuts = append(cuts, cut{pos: lines[i].start, end: lines[i].end, kind: kind})
	}
	return lines[first].start, cuts
}
