package correct

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/oracle"
)

func doc(elements ...model.DocumentElement) []model.DocumentElement {
	model.Renumber(elements)
	return elements
}

func el(kind model.ElementKind, number, text string) model.DocumentElement {
	return model.DocumentElement{Kind: kind, Number: number, Text: text}
}

func kinds(elements []model.DocumentElement) string {
	parts := make([]string, len(elements))
	for i, e := range elements {
		parts[i] = string(e.Kind)
		if e.Number != "" {
			parts[i] += "(" + e.Number + ")"
		}
	}
	return strings.Join(parts, " ")
}

func truncatedDoc() ([]model.DocumentElement, []model.ValidationVerdict) {
	elements := doc(
		el(model.KindActIdentification, "", "LEI Nº 1.000, DE 2 DE JANEIRO DE 2020"),
		el(model.KindArticle, "Art. 1º", "Art. 1º Esta Lei dispõe sobre"),
		el(model.KindArticle, "Art. 2º", "Art. 2º Revogam-se as disposições em contrário."),
		el(model.KindDateLine, "", "Brasília, 2 de janeiro de 2020"),
	)
	verdicts := []model.ValidationVerdict{
		{Order: 1, Status: model.StatusOK},
		{Order: 2, Kind: model.KindArticle, Number: "Art. 1º", Status: model.StatusWarning, Rule: model.RuleTruncated, Problem: "texto possivelmente truncado"},
		{Order: 3, Status: model.StatusOK},
		{Order: 4, Status: model.StatusOK},
	}
	return elements, verdicts
}

func TestCorrect_AppliesReplacementsAndAdditions(t *testing.T) {
	elements, verdicts := truncatedDoc()
	var req oracle.Request
	caller := oracle.CallerFunc(func(_ context.Context, r oracle.Request) (string, error) {
		req = r
		return "Aqui está:\n```json\n" + `{
			"replacements": [{"order": 2, "text": "Art. 1º Esta Lei dispõe sobre o serviço público. (Incluído pela Lei nº 2.000, de 2021)"}],
			"additions": [{"order": 3, "kind": "Article", "number": "Art. 1º-A", "text": "Art. 1º-A O serviço é gratuito."}]
		}` + "\n```", nil
	})

	out := New(caller, DefaultConfig()).Correct(context.Background(), elements, verdicts, "LEI Nº 1.000 ... texto bruto")

	if out.Status != model.CorrectionApplied {
		t.Fatalf("Status = %s, conditions %v", out.Status, out.Conditions)
	}
	if out.Replaced != 1 || out.Added != 1 {
		t.Errorf("Replaced=%d Added=%d", out.Replaced, out.Added)
	}
	want := "ActIdentification Article(Art. 1º) Article(Art. 1º-A) Article(Art. 2º) DateLine"
	if got := kinds(out.Elements); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if out.Elements[1].Text != "Art. 1º Esta Lei dispõe sobre o serviço público." {
		t.Errorf("replacement text = %q", out.Elements[1].Text)
	}
	for i, e := range out.Elements {
		if e.Order != i+1 {
			t.Errorf("element %d has order %d", i, e.Order)
		}
	}

	if !req.JSON || req.Task != "correct" {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.Prompt, "texto possivelmente truncado") || !strings.Contains(req.Prompt, "texto bruto") {
		t.Errorf("prompt missing flagged element or raw excerpt:\n%s", req.Prompt)
	}

	// input untouched
	if elements[1].Text != "Art. 1º Esta Lei dispõe sobre" || len(elements) != 4 {
		t.Error("input slice was modified")
	}
}

func TestCorrect_NoOpOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		caller oracle.Caller
		want   model.ConditionKind
	}{
		{
			name:   "no oracle",
			caller: nil,
			want:   model.ConditionOracleUnavailable,
		},
		{
			name: "credentials exhausted",
			caller: oracle.CallerFunc(func(context.Context, oracle.Request) (string, error) {
				return "", errors.Join(oracle.ErrOracleUnavailable, oracle.ErrRateLimited)
			}),
			want: model.ConditionOracleUnavailable,
		},
		{
			name: "timeout",
			caller: oracle.CallerFunc(func(ctx context.Context, _ oracle.Request) (string, error) {
				return "", context.DeadlineExceeded
			}),
			want: model.ConditionOracleUnavailable,
		},
		{
			name: "prose only",
			caller: oracle.CallerFunc(func(context.Context, oracle.Request) (string, error) {
				return "Desculpe, não consegui identificar os elementos.", nil
			}),
			want: model.ConditionMalformedOracleResponse,
		},
		{
			name: "wrong shape",
			caller: oracle.CallerFunc(func(context.Context, oracle.Request) (string, error) {
				return `{"replacements": "nenhuma"}`, nil
			}),
			want: model.ConditionMalformedOracleResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elements, verdicts := truncatedDoc()
			out := New(tt.caller, DefaultConfig()).Correct(context.Background(), elements, verdicts, "raw")

			if out.Status != model.CorrectionNotCorrected {
				t.Errorf("Status = %s", out.Status)
			}
			if !model.HasCondition(out.Conditions, tt.want) {
				t.Errorf("conditions = %v, want %s", out.Conditions, tt.want)
			}
			if kinds(out.Elements) != kinds(elements) || out.Elements[1].Text != elements[1].Text {
				t.Error("elements changed on a no-op pass")
			}
		})
	}
}

func TestCorrect_EmptyPatch(t *testing.T) {
	elements, verdicts := truncatedDoc()
	caller := oracle.CallerFunc(func(context.Context, oracle.Request) (string, error) {
		return `{"replacements":[],"additions":[]}`, nil
	})
	out := New(caller, DefaultConfig()).Correct(context.Background(), elements, verdicts, "")
	if out.Status != model.CorrectionNotCorrected || len(out.Conditions) != 0 {
		t.Errorf("Status=%s Conditions=%v", out.Status, out.Conditions)
	}
}

func TestCorrect_BoundsFlaggedSet(t *testing.T) {
	var elements []model.DocumentElement
	var verdicts []model.ValidationVerdict
	for i := 1; i <= 10; i++ {
		elements = append(elements, el(model.KindArticle, "", "Art. x"))
	}
	elements = doc(elements...)
	for i := range elements {
		status := model.StatusWarning
		if i == 9 {
			status = model.StatusError
		}
		verdicts = append(verdicts, model.ValidationVerdict{Order: i + 1, Status: status, Problem: "p"})
	}

	c := New(nil, Config{MaxFlagged: 3})
	flagged := c.selectFlagged(elements, verdicts)
	if len(flagged) != 3 {
		t.Fatalf("flagged %d elements, want 3", len(flagged))
	}
	if flagged[0].Order != 10 {
		t.Errorf("errors should be sent first, got order %d", flagged[0].Order)
	}
}

func TestCorrect_RawPrefixBounded(t *testing.T) {
	var prompt string
	caller := oracle.CallerFunc(func(_ context.Context, r oracle.Request) (string, error) {
		prompt = r.Prompt
		return "{}", nil
	})
	elements, verdicts := truncatedDoc()
	raw := strings.Repeat("a", 100) + "FIM"
	New(caller, Config{RawPrefixChars: 50}).Correct(context.Background(), elements, verdicts, raw)
	if strings.Contains(prompt, "FIM") || !strings.Contains(prompt, strings.Repeat("a", 50)) {
		t.Error("raw excerpt not bounded to prefix")
	}
}

func TestParsePatch_ArrayShape(t *testing.T) {
	p, err := ParsePatch(`Resultado: [{"order":2,"text":"novo"},{"order":5,"kind":"Paragraph","number":"§ 1º","text":"§ 1º Texto."}]`)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Replacements) != 1 || len(p.Additions) != 1 || p.Additions[0].Kind != "Paragraph" {
		t.Errorf("patch = %+v", p)
	}
}

func TestParsePatch_ObjectShapeInProse(t *testing.T) {
	p, err := ParsePatch("Segue a correção:\n```json\n{\"replacements\":[{\"order\":3,\"text\":\"Art. 2º Texto completo.\"}],\"additions\":[]}\n```")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Replacements) != 1 || p.Replacements[0].Order != 3 || len(p.Additions) != 0 {
		t.Errorf("patch = %+v", p)
	}
}

func TestParsePatch_WrongFieldTypeIsMalformed(t *testing.T) {
	for _, answer := range []string{
		`{"replacements":"nenhuma"}`,
		`[{"order":"dois","text":"x"}]`,
		"sem JSON algum",
	} {
		if _, err := ParsePatch(answer); !errors.Is(err, oracle.ErrMalformedResponse) {
			t.Errorf("ParsePatch(%q) err = %v, want ErrMalformedResponse", answer, err)
		}
	}
}

func TestMerge_SkipsUnusableAdditions(t *testing.T) {
	elements := doc(
		el(model.KindEmenta, "", "Dispõe sobre coisas."),
		el(model.KindArticle, "Art. 1º", "Art. 1º Texto."),
	)
	patch := Patch{
		Replacements: []Replacement{{Order: 99, Text: "sem alvo"}, {Order: 2, Text: "  "}},
		Additions: []Addition{
			{Order: 3, Kind: "Article", Number: "Art. 1º", Text: "Art. 1º Repetido."},
			{Order: 1, Kind: "Ementa", Text: "Outra ementa qualquer aqui."},
			{Order: 3, Kind: "Banana", Text: "?"},
			{Order: 3, Kind: "artigo", Number: "Art. 2", Text: "Art. 2 Novo."},
		},
	}
	out := Merge(elements, patch)
	if got, want := kinds(out), "Ementa Article(Art. 1º) Article(Art. 2º)"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSortByKind(t *testing.T) {
	elements := doc(
		el(model.KindSignatureLine, "", "FULANO"),
		el(model.KindArticle, "Art. 1º", "Art. 1º A."),
		el(model.KindChapterTitle, "", "CAPÍTULO II"),
		el(model.KindArticle, "Art. 2º", "Art. 2º B."),
		el(model.KindDateLine, "", "Brasília, 1º de maio de 2000"),
		el(model.KindEmenta, "", "Dispõe sobre X."),
		el(model.KindInstitutionalHeader, "", "Presidência da República"),
	)
	SortByKind(elements)
	want := "InstitutionalHeader Ementa Article(Art. 1º) ChapterTitle Article(Art. 2º) DateLine SignatureLine"
	if got := kinds(elements); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if elements[6].Order != 7 {
		t.Error("not renumbered")
	}
}

func TestDropDuplicateMarkers(t *testing.T) {
	elements := doc(
		el(model.KindArticle, "Art. 1º", "Art. 1º Caput:"),
		el(model.KindParagraph, "§ 1º", "§ 1º Primeira versão:"),
		el(model.KindItem, "I", "I - velho;"),
		el(model.KindParagraph, "§ 1º", "§ 1º Segunda versão:"),
		el(model.KindItem, "I", "I - novo;"),
		el(model.KindItem, "II", "II - outro."),
		el(model.KindArticle, "Art. 2º", "Art. 2º Caput:"),
		el(model.KindParagraph, "§ 1º", "§ 1º Não é duplicado, outro artigo."),
	)

	out, n := DropDuplicateMarkers(elements)
	if n != 2 {
		t.Fatalf("dropped %d, want 2", n)
	}
	want := "Article(Art. 1º) Paragraph(§ 1º) Item(I) Item(II) Article(Art. 2º) Paragraph(§ 1º)"
	if got := kinds(out); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if out[1].Text != "§ 1º Segunda versão:" {
		t.Errorf("kept %q, want the last occurrence", out[1].Text)
	}
	if out[5].Order != 6 {
		t.Error("not renumbered")
	}
}
