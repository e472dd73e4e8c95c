package model

import "testing"

func TestParseActType(t *testing.T) {
	tests := []struct {
		in   string
		want ActType
		ok   bool
	}{
		{"OrdinaryLaw", ActOrdinaryLaw, true},
		{"complementary_law", ActComplementaryLaw, true},
		{"lcp", ActComplementaryLaw, true},
		{" Decreto-Lei ", ActDecreeLaw, true},
		{"mpv", ActProvisionalMeasure, true},
		{"plp", ActComplementaryBill, true},
		{"portaria", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseActType(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseActType(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestActKey_Label(t *testing.T) {
	key := ActKey{Type: ActComplementaryLaw, Number: "101", Year: 2000}
	if got := key.Label(); got != "Lei Complementar nº 101/2000" {
		t.Errorf("Label = %q", got)
	}
	if got := key.String(); got != "ComplementaryLaw:101:2000" {
		t.Errorf("String = %q", got)
	}

	noYear := ActKey{Type: ActDecree, Number: "3.000"}
	if got := noYear.Label(); got != "Decreto nº 3.000" {
		t.Errorf("Label without year = %q", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]ElementKind{
		"Article":       KindArticle,
		"chapter_title": KindChapterTitle,
		"parágrafo":     KindParagraph,
		"inciso":        KindItem,
		"alinea":        KindClause,
	}
	for in, want := range tests {
		got, ok := ParseKind(in)
		if !ok || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseKind("rodapé"); ok {
		t.Error("Expected unknown kind to be rejected")
	}
}

func TestStartsWithEmentaVerb(t *testing.T) {
	if !StartsWithEmentaVerb("Dispõe sobre licitações.") {
		t.Error("Expected Dispõe to open an ementa")
	}
	if StartsWithEmentaVerb("Dispõem os artigos") {
		t.Error("A longer word must not match")
	}
	if StartsWithEmentaVerb("O Presidente da República") {
		t.Error("Expected no match")
	}
}

func TestRenumberAndFindEmenta(t *testing.T) {
	elements := []DocumentElement{
		{Kind: KindActIdentification, Text: "LEI Nº 1", Order: 4},
		{Kind: KindEmenta, Text: "Altera a Lei nº 2.", Order: 9},
		{Kind: KindArticle, Number: "Art. 1º", Text: "Art. 1º Texto.", Order: 9},
	}
	Renumber(elements)
	for i, e := range elements {
		if e.Order != i+1 {
			t.Errorf("element %d order = %d", i, e.Order)
		}
	}

	text, ok := FindEmenta(elements)
	if !ok || text != "Altera a Lei nº 2." {
		t.Errorf("FindEmenta = %q, %v", text, ok)
	}
	if CountKind(elements, KindArticle) != 1 {
		t.Error("Expected one article")
	}
}
