package segment

import (
	"sort"
	"strings"
	"testing"

	"github.com/ppiankov/estatuto/internal/model"
)

func kindsOf(elements []model.DocumentElement) []model.ElementKind {
	kinds := make([]model.ElementKind, len(elements))
	for i, e := range elements {
		kinds[i] = e.Kind
	}
	return kinds
}

func assertKinds(t *testing.T, elements []model.DocumentElement, want ...model.ElementKind) {
	t.Helper()
	got := kindsOf(elements)
	if len(got) != len(want) {
		t.Fatalf("expected %d elements %v, got %d %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("element %d: expected kind %s, got %s (all: %v)", i, want[i], got[i], got)
		}
	}
}

func TestSegment_TwoArticles(t *testing.T) {
	text := "Art. 1º Esta lei dispõe sobre X.\n\nArt. 2º Esta lei entra em vigor na data de sua publicação."
	seg := New(Options{}).Segment(text)

	if seg.LowConfidence {
		t.Error("expected confident segmentation")
	}
	if seg.Anchors != 2 {
		t.Errorf("expected 2 anchors, got %d", seg.Anchors)
	}
	assertKinds(t, seg.Elements, model.KindArticle, model.KindArticle)

	if seg.Elements[0].Number != "Art. 1º" || seg.Elements[1].Number != "Art. 2º" {
		t.Errorf("unexpected numbers: %q, %q", seg.Elements[0].Number, seg.Elements[1].Number)
	}
	if seg.Elements[0].Text != "Art. 1º Esta lei dispõe sobre X." {
		t.Errorf("unexpected text: %q", seg.Elements[0].Text)
	}
	if seg.Elements[0].Order != 1 || seg.Elements[1].Order != 2 {
		t.Errorf("expected contiguous orders, got %d, %d", seg.Elements[0].Order, seg.Elements[1].Order)
	}
}

func TestSegment_NumberNormalization(t *testing.T) {
	text := "Art. 1o Primeiro.\nArt 2° Segundo.\nArt. 7º-A Acrescido.\nArt. 10º Décimo.\nART. 11. Onze.\nArt. 1.024 Milésimo."
	seg := New(Options{}).Segment(text)

	want := []string{"Art. 1º", "Art. 2º", "Art. 7º-A", "Art. 10", "Art. 11", "Art. 1.024"}
	if len(seg.Elements) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(seg.Elements))
	}
	for i, w := range want {
		if seg.Elements[i].Number != w {
			t.Errorf("element %d: expected %q, got %q", i, w, seg.Elements[i].Number)
		}
	}
}

func TestSegment_RejectsUnanchoredMarkers(t *testing.T) {
	text := "Art. 1º Conforme o Art. 5º desta lei, aplica-se o disposto.\nArt. 2º Art. sem número não é artigo."
	seg := New(Options{}).Segment(text)

	assertKinds(t, seg.Elements, model.KindArticle, model.KindArticle)
	if !strings.Contains(seg.Elements[0].Text, "Art. 5º desta lei") {
		t.Errorf("cross-reference should stay in the body, got %q", seg.Elements[0].Text)
	}
}

func TestSegment_QuotedAmendingText(t *testing.T) {
	text := "Art. 2º A Lei passa a vigorar acrescida do seguinte artigo:\n“Art. 7º-A. Novo texto.”\nArt. 3º Esta lei entra em vigor na data de sua publicação."
	seg := New(Options{}).Segment(text)

	if seg.Anchors != 2 {
		t.Fatalf("quoted article must not be an anchor, got %d anchors", seg.Anchors)
	}
	if !strings.Contains(seg.Elements[0].Text, "Art. 7º-A. Novo texto.") {
		t.Errorf("quoted article should remain in the amending body, got %q", seg.Elements[0].Text)
	}
}

func TestSegment_SubStructure(t *testing.T) {
	text := strings.Join([]string{
		"Art. 5º São objetivos:",
		"I - promover a saúde;",
		"II - garantir:",
		"a) acesso;",
		"b) qualidade.",
		"§ 1º O disposto neste artigo aplica-se a todos.",
		"Parágrafo único. Outro comando.",
		"Art. 6º São fases: I - uma; II - outra.",
	}, "\n")
	seg := New(Options{}).Segment(text)

	assertKinds(t, seg.Elements,
		model.KindArticle, model.KindItem, model.KindItem, model.KindClause, model.KindClause,
		model.KindParagraph, model.KindParagraph,
		model.KindArticle, model.KindItem, model.KindItem,
	)

	numbers := []string{"Art. 5º", "I", "II", "a)", "b)", "§ 1º", "Parágrafo único", "Art. 6º", "I", "II"}
	for i, n := range numbers {
		if seg.Elements[i].Number != n {
			t.Errorf("element %d: expected number %q, got %q", i, n, seg.Elements[i].Number)
		}
	}
	if seg.Elements[8].Text != "I - uma;" {
		t.Errorf("unexpected inline item text: %q", seg.Elements[8].Text)
	}
}

func TestSegment_Parentheticals(t *testing.T) {
	text := strings.Join([]string{
		"Art. 4º (VETADO)",
		"Art. 5º Texto novo. (Incluído pela Lei nº 1.234, de 2000)",
		"Art. 6º (Revogado pela Lei nº 9.876, de 1999)",
	}, "\n")
	seg := New(Options{}).Segment(text)

	want := []string{"Art. 4º (Vetado)", "Art. 5º Texto novo.", "Art. 6º (Revogado)"}
	for i, w := range want {
		if seg.Elements[i].Text != w {
			t.Errorf("element %d: expected %q, got %q", i, w, seg.Elements[i].Text)
		}
	}
}

const complementaryLaw101 = `PRESIDÊNCIA DA REPÚBLICA
Casa Civil
Subchefia para Assuntos Jurídicos
LEI COMPLEMENTAR Nº 101, DE 4 DE MAIO DE 2000
Estabelece normas de finanças públicas voltadas para a responsabilidade na gestão fiscal.
O PRESIDENTE DA REPÚBLICA Faço saber que o Congresso Nacional decreta e eu sanciono a seguinte Lei Complementar:
CAPÍTULO I
DISPOSIÇÕES PRELIMINARES
Art. 1º Esta Lei Complementar estabelece normas de finanças públicas.
Seção I
Da Abrangência
Art. 2º Esta Lei Complementar entra em vigor na data da sua publicação.
Brasília, 4 de maio de 2000; 179º da Independência e 112º da República.
FERNANDO HENRIQUE CARDOSO
Pedro Malan
Este texto não substitui o publicado no DOU de 5.5.2000`

func TestSegment_HeaderHeadingsAndTrailer(t *testing.T) {
	seg := New(Options{}).Segment(complementaryLaw101)

	assertKinds(t, seg.Elements,
		model.KindInstitutionalHeader,
		model.KindActIdentification,
		model.KindEmenta,
		model.KindPreamble,
		model.KindChapterTitle,
		model.KindArticle,
		model.KindSectionTitle,
		model.KindArticle,
		model.KindDateLine,
		model.KindSignatureLine,
		model.KindSignatureLine,
		model.KindSignatureLine,
	)

	els := seg.Elements
	if els[0].Text != "PRESIDÊNCIA DA REPÚBLICA Casa Civil Subchefia para Assuntos Jurídicos" {
		t.Errorf("unexpected header text: %q", els[0].Text)
	}
	if els[4].Text != "CAPÍTULO I DISPOSIÇÕES PRELIMINARES" {
		t.Errorf("heading name line should be folded in, got %q", els[4].Text)
	}
	if els[6].Text != "Seção I Da Abrangência" {
		t.Errorf("section name line should be folded in, got %q", els[6].Text)
	}
	if strings.Contains(els[7].Text, "Brasília") {
		t.Errorf("date line must be split off the last article, got %q", els[7].Text)
	}
	if !strings.HasPrefix(els[8].Text, "Brasília, 4 de maio de 2000") {
		t.Errorf("unexpected date line: %q", els[8].Text)
	}
	if model.CountKind(els, model.KindEmenta) != 1 {
		t.Error("expected exactly one ementa")
	}
}

func TestSegment_NoAnchors(t *testing.T) {
	text := "Texto sem artigos.\nOutra linha qualquer."
	seg := New(Options{}).Segment(text)

	if !seg.LowConfidence {
		t.Error("expected low confidence without anchors")
	}
	assertKinds(t, seg.Elements, model.KindPreamble)
	if seg.Elements[0].Text != "Texto sem artigos. Outra linha qualquer." {
		t.Errorf("unexpected preamble text: %q", seg.Elements[0].Text)
	}
	if seg.Elements[0].Span != (model.Span{Start: 0, End: len(text)}) {
		t.Errorf("preamble should span the whole text, got %+v", seg.Elements[0].Span)
	}
}

func TestSegment_Empty(t *testing.T) {
	seg := New(Options{}).Segment("  \n ")
	if !seg.LowConfidence || len(seg.Elements) != 0 {
		t.Errorf("expected empty low-confidence result, got %+v", seg)
	}
}

// Every non-whitespace byte belongs to exactly one span, spans follow
// element order.
func TestSegment_TotalAndOrderPreserving(t *testing.T) {
	inputs := []string{
		complementaryLaw101,
		"Art. 1º Esta lei dispõe sobre X.\n\nArt. 2º Esta lei entra em vigor.",
		"Preâmbulo solto decreta: Art. 1º Texto; I - um; II - dois.\n§ 1º Mais.\nArt. 2º Fim.",
		"Nenhum artigo aqui.",
	}

	for _, text := range inputs {
		seg := New(Options{}).Segment(text)
		spans := make([]model.Span, len(seg.Elements))
		for i, e := range seg.Elements {
			spans[i] = e.Span
			if e.Order != i+1 {
				t.Fatalf("order not contiguous at %d: %d", i, e.Order)
			}
		}
		if !sort.SliceIsSorted(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start }) {
			t.Fatalf("spans out of order for %q", text)
		}

		prev := 0
		for _, sp := range spans {
			if sp.Start < prev {
				t.Fatalf("overlapping spans in %q", text)
			}
			if gap := text[prev:sp.Start]; strings.TrimSpace(gap) != "" {
				t.Fatalf("uncovered text %q in %q", gap, text)
			}
			prev = sp.End
		}
		if tail := text[prev:]; strings.TrimSpace(tail) != "" {
			t.Fatalf("uncovered tail %q", tail)
		}
	}
}
