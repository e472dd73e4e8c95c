package model

import "strings"

// ElementKind tags the structural role of a DocumentElement
type ElementKind string

const (
	KindInstitutionalHeader ElementKind = "InstitutionalHeader"
	KindActIdentification   ElementKind = "ActIdentification"
	KindEmenta              ElementKind = "Ementa"
	KindPreamble            ElementKind = "Preamble"
	KindChapterTitle        ElementKind = "ChapterTitle"
	KindSectionTitle        ElementKind = "SectionTitle"
	KindSubsectionTitle     ElementKind = "SubsectionTitle"
	KindArticle             ElementKind = "Article"
	KindParagraph           ElementKind = "Paragraph"
	KindItem                ElementKind = "Item"
	KindClause              ElementKind = "Clause"
	KindDateLine            ElementKind = "DateLine"
	KindSignatureLine       ElementKind = "SignatureLine"
)

// AllKinds lists every kind in document priority order
var AllKinds = []ElementKind{
	KindInstitutionalHeader,
	KindActIdentification,
	KindEmenta,
	KindPreamble,
	KindChapterTitle,
	KindSectionTitle,
	KindSubsectionTitle,
	KindArticle,
	KindParagraph,
	KindItem,
	KindClause,
	KindDateLine,
	KindSignatureLine,
}

// ParseKind resolves a kind name case-insensitively, accepting snake_case
// and the Portuguese names the oracle sometimes answers with.
func ParseKind(s string) (ElementKind, bool) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, k := range AllKinds {
		if strings.ToLower(string(k)) == key {
			return k, true
		}
	}
	switch key {
	case "artigo":
		return KindArticle, true
	case "paragrafo", "parágrafo":
		return KindParagraph, true
	case "inciso":
		return KindItem, true
	case "alinea", "alínea":
		return KindClause, true
	case "capitulo", "capítulo", "titulo", "título":
		return KindChapterTitle, true
	case "secao", "seção":
		return KindSectionTitle, true
	case "subsecao", "subseção":
		return KindSubsectionTitle, true
	case "assinatura", "signature":
		return KindSignatureLine, true
	case "data", "date":
		return KindDateLine, true
	case "header", "cabecalho", "cabeçalho":
		return KindInstitutionalHeader, true
	case "identificacao", "identificação":
		return KindActIdentification, true
	case "preambulo", "preâmbulo":
		return KindPreamble, true
	}
	return "", false
}

// IsArticleBody reports whether the kind belongs to the numbered article body
func (k ElementKind) IsArticleBody() bool {
	switch k {
	case KindArticle, KindParagraph, KindItem, KindClause:
		return true
	}
	return false
}

// IsTitle reports whether the kind is a chapter/section/subsection heading
func (k ElementKind) IsTitle() bool {
	return k == KindChapterTitle || k == KindSectionTitle || k == KindSubsectionTitle
}

// Priority is the merge sort rank: header < identification < ementa <
// preamble < chapter < section < subsection < article body < date < signature.
func (k ElementKind) Priority() int {
	switch k {
	case KindInstitutionalHeader:
		return 0
	case KindActIdentification:
		return 1
	case KindEmenta:
		return 2
	case KindPreamble:
		return 3
	case KindChapterTitle:
		return 4
	case KindSectionTitle:
		return 5
	case KindSubsectionTitle:
		return 6
	case KindArticle, KindParagraph, KindItem, KindClause:
		return 7
	case KindDateLine:
		return 8
	case KindSignatureLine:
		return 9
	default:
		return 7
	}
}

// Span is a [Start, End) byte range in the normalized source text
type Span struct {
	Start int
	End   int
}

// Len returns the span width
func (s Span) Len() int {
	return s.End - s.Start
}

// DocumentElement is the atomic unit of a structured act
type DocumentElement struct {
	Kind   ElementKind `json:"kind"`
	Number string      `json:"number,omitempty"` // e.g. "Art. 7º-A", "§ 2º", "III", "b)"
	Text   string      `json:"text"`
	Order  int         `json:"order"` // 1-based, contiguous
	Span   Span        `json:"-"`     // origin in the normalized text; zero for oracle-supplied elements
}

// Renumber reassigns contiguous 1-based orders in slice order
func Renumber(elements []DocumentElement) {
	for i := range elements {
		elements[i].Order = i + 1
	}
}

// CountKind counts elements of the given kind
func CountKind(elements []DocumentElement, kind ElementKind) int {
	n := 0
	for _, e := range elements {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// FindEmenta returns the text of the first Ementa element, if any
func FindEmenta(elements []DocumentElement) (string, bool) {
	for _, e := range elements {
		if e.Kind == KindEmenta {
			return e.Text, true
		}
	}
	return "", false
}
