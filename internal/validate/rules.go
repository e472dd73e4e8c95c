package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/segment"
)

const (
	minStructuralRunes = 3
	minBodyRunes       = 10
)

var (
	residualMarkup = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*[^>]*>|\*\*|__|&(?:[a-zA-Z]+|#\d+);`)
	parenthetical  = regexp.MustCompile(`\(([^()]*)\)`)
	crossReference = regexp.MustCompile(`(?i)\b(?:lei|medida|decreto|emenda|vide)\b|inclu[íi]d|reda[çc][ãa]o`)

	paragraphMarker = regexp.MustCompile(`^(?:§[ \t]*\d+(?:[ \t]*[º°ª]|o\b)?|[Pp]ar[áa]grafo [úu]nico|PAR[ÁA]GRAFO [ÚU]NICO)`)
	itemMarker      = regexp.MustCompile(`^[IVXLCDM]{1,8}[ \t]*[-–—]`)
	clauseMarker    = regexp.MustCompile(`^[a-z]{1,2}\)`)
	articleMarker   = regexp.MustCompile(`^(?:Art|ART|art)\.?[ \t]*(?:\d{1,3}(?:\.\d{3})+|\d+)(?:[ \t]*[º°ª]|o\b)?(?:[-–][A-Za-z]{1,2}\b)?`)

	// repeated paragraph markers inside one element's own text
	innerParagraph = regexp.MustCompile(`(?:^|[.:;]\s+|\n)§[ \t]*(\d+)`)
)

// state is the rolling window carried through one validation pass
type state struct {
	articles    map[string]bool
	prevArticle int // leading numeral of the nearest prior article, 0 if none
	article     string
	paragraph   string
	item        string
	markers     map[string]bool
}

func newState() *state {
	return &state{
		articles: make(map[string]bool),
		markers:  make(map[string]bool),
	}
}

func (v *Validator) check(st *state, idx int, e model.DocumentElement) model.ValidationVerdict {
	vd := model.ValidationVerdict{
		Index:  idx,
		Order:  e.Order,
		Kind:   e.Kind,
		Number: e.Number,
		Status: model.StatusOK,
	}

	if !e.Kind.IsArticleBody() {
		// structural elements only need some text
		if utf8.RuneCountInString(strings.TrimSpace(e.Text)) < minStructuralRunes {
			return flag(vd, model.StatusWarning, model.RuleShortStructural,
				"elemento estrutural com texto muito curto", "verificar se o trecho foi extraído por completo")
		}
		return vd
	}

	number := strings.TrimSpace(e.Number)
	if number == "" {
		number = markerFromText(e.Kind, e.Text)
	}

	// unnumbered body element
	if number == "" {
		st.enter(e.Kind, "")
		return flag(vd, model.StatusWarning, model.RuleMissingNumber,
			"sem número de artigo: pode ser continuação ou cabeçalho não detectado",
			"anexar ao elemento anterior ou reclassificar como título")
	}
	vd.Number = number

	if e.Kind == model.KindArticle {
		return v.checkArticle(st, vd, e, number)
	}

	// repeated marker within the same parent
	key := st.markerKey(e.Kind, number)
	st.enter(e.Kind, number)
	if st.markers[key] {
		return flag(vd, model.StatusWarning, model.RuleDuplicateMarker,
			fmt.Sprintf("%s duplicado: %s", kindName(e.Kind), number),
			"manter a última ocorrência")
	}
	st.markers[key] = true

	return v.checkBody(vd, e)
}

func (v *Validator) checkArticle(st *state, vd model.ValidationVerdict, e model.DocumentElement, number string) model.ValidationVerdict {
	label := number
	if canonical, ok := segment.NormalizeArticleLabel(number); ok {
		label = canonical
	}
	base, suffix, parsed := segment.ParseArticle(label)
	prev := st.prevArticle
	st.enter(model.KindArticle, label)
	if parsed {
		st.prevArticle = base
	}

	// duplicate article, or a suffixed article mislabeled by the segmenter
	if st.articles[label] {
		if fromText, ok := segment.NormalizeArticleLabel(e.Text); ok && fromText != label {
			st.articles[fromText] = true
			return flag(vd, model.StatusWarning, model.RuleNumberMismatch,
				fmt.Sprintf("número do artigo diverge do texto: rótulo %s, texto %s", label, fromText),
				"corrigir o número para "+fromText)
		}
		return flag(vd, model.StatusError, model.RuleDuplicateArticle,
			"artigo duplicado: "+label,
			"remover a ocorrência repetida")
	}
	st.articles[label] = true

	// repeated paragraph markers left inside the article text
	if dup := repeatedParagraph(e.Text); dup != "" {
		return flag(vd, model.StatusWarning, model.RuleDuplicateMarker,
			"parágrafo duplicado: "+dup,
			"manter a última ocorrência")
	}

	// numbering continuity
	if parsed && prev > 0 {
		if base-prev > v.cfg.MaxForwardGap {
			return flag(vd, model.StatusWarning, model.RuleForwardGap,
				fmt.Sprintf("possíveis artigos ausentes entre Art. %s e %s; verificar artigos revogados", segment.FormatNumber(prev), label),
				"conferir a numeração com o texto original")
		}
		if base < prev && suffix == "" {
			return flag(vd, model.StatusWarning, model.RuleBackwardJump,
				fmt.Sprintf("numeração retrocede de Art. %s para %s", segment.FormatNumber(prev), label),
				"verificar a ordem dos artigos")
		}
	}

	return v.checkBody(vd, e)
}

// checkBody applies the body-content sanity checks
func (v *Validator) checkBody(vd model.ValidationVerdict, e model.DocumentElement) model.ValidationVerdict {
	full := strings.TrimSpace(e.Text)
	body := stripMarker(e.Kind, full)
	if segment.IsStateMarker(body) || segment.IsStateMarker(full) {
		return vd
	}

	if utf8.RuneCountInString(full) < minBodyRunes {
		return flag(vd, model.StatusWarning, model.RuleShortBody,
			"texto muito curto", "verificar se o dispositivo foi truncado")
	}
	if residualMarkup.MatchString(body) {
		return flag(vd, model.StatusWarning, model.RuleResidualMarkup,
			"marcação HTML/markdown residual no texto", "remover a marcação")
	}
	for _, m := range parenthetical.FindAllStringSubmatch(body, -1) {
		if segment.IsStateMarker(m[0]) {
			continue
		}
		if crossReference.MatchString(m[1]) {
			return flag(vd, model.StatusWarning, model.RuleCrossReference,
				"remissão legislativa não normalizada: "+m[0], "remover a nota entre parênteses")
		}
	}
	if truncated(body) {
		return flag(vd, model.StatusWarning, model.RuleTruncated,
			"texto possivelmente truncado", "completar o texto a partir da fonte")
	}
	return vd
}

func flag(vd model.ValidationVerdict, status model.VerdictStatus, rule model.Rule, problem, suggestion string) model.ValidationVerdict {
	vd.Status = status
	vd.Rule = rule
	vd.Problem = problem
	vd.Suggestion = suggestion
	return vd
}

// enter moves the parent context to a new element
func (st *state) enter(kind model.ElementKind, number string) {
	switch kind {
	case model.KindArticle:
		st.article = number
		st.paragraph = ""
		st.item = ""
	case model.KindParagraph:
		st.paragraph = number
		st.item = ""
	case model.KindItem:
		st.item = number
	}
}

// markerKey scopes a sub-marker to its parent: paragraphs per article,
// items per paragraph, clauses per item
func (st *state) markerKey(kind model.ElementKind, number string) string {
	switch kind {
	case model.KindParagraph:
		return st.article + "|" + string(kind) + "|" + number
	case model.KindItem:
		return st.article + "|" + st.paragraph + "|" + string(kind) + "|" + number
	default:
		return st.article + "|" + st.paragraph + "|" + st.item + "|" + string(kind) + "|" + number
	}
}

func kindName(kind model.ElementKind) string {
	switch kind {
	case model.KindParagraph:
		return "parágrafo"
	case model.KindItem:
		return "inciso"
	case model.KindClause:
		return "alínea"
	default:
		return "artigo"
	}
}

func markerRegexp(kind model.ElementKind) *regexp.Regexp {
	switch kind {
	case model.KindArticle:
		return articleMarker
	case model.KindParagraph:
		return paragraphMarker
	case model.KindItem:
		return itemMarker
	case model.KindClause:
		return clauseMarker
	}
	return nil
}

// markerFromText recovers the label of an unnumbered element from its text
func markerFromText(kind model.ElementKind, text string) string {
	text = strings.TrimSpace(text)
	if kind == model.KindArticle {
		label, _ := segment.NormalizeArticleLabel(text)
		return label
	}
	re := markerRegexp(kind)
	if re == nil {
		return ""
	}
	m := re.FindString(text)
	if kind == model.KindItem {
		m = strings.TrimRight(m, " \t-–—")
	}
	return strings.TrimSpace(m)
}

// stripMarker returns the body without its leading marker and separator
func stripMarker(kind model.ElementKind, text string) string {
	text = strings.TrimSpace(text)
	if re := markerRegexp(kind); re != nil {
		if loc := re.FindStringIndex(text); loc != nil {
			text = text[loc[1]:]
		}
	}
	return strings.TrimLeft(text, " \t\n.-–—:")
}

// truncated reports a body that does not end in terminal punctuation.
// Closing quotes/parentheses and a trailing "e"/"ou" conjunction are allowed.
func truncated(body string) bool {
	t := strings.TrimRight(body, " \t\n\"'”’»)")
	for _, conj := range []string{" e", " ou"} {
		if strings.HasSuffix(t, conj) {
			t = strings.TrimRight(strings.TrimSuffix(t, conj), " \t")
			break
		}
	}
	if t == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(t)
	switch r {
	case '.', ';', ':', '!', '?':
		return false
	}
	return true
}

func repeatedParagraph(text string) string {
	seen := make(map[string]bool)
	for _, m := range innerParagraph.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		label := segment.FormatParagraph(n)
		if seen[label] {
			return label
		}
		seen[label] = true
	}
	return ""
}
