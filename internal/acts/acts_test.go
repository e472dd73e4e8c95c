package acts

import (
	"testing"
	"time"

	"github.com/ppiankov/estatuto/internal/model"
)

const lcpListing = `<html><body>
<table>
<tr><th>Lei Complementar</th><th>Ementa</th></tr>
<tr>
  <td><a href="lcp/Lcp101.htm">Lei Complementar nº 101, de 4 de maio de 2000</a><br>Publicado no DOU de 5.5.2000</td>
  <td>Estabelece normas de finanças públicas voltadas para a responsabilidade na gestão fiscal e dá outras providências.</td>
</tr>
<tr>
  <td><a href="lcp/Lcp101.htm">Lei Complementar nº 101, de 4 de maio de 2000</a> DOU de 5.5.2000</td>
  <td>Linha repetida.</td>
</tr>
<tr>
  <td><a href="/ccivil_03/leis/lcp/Lcp200.htm">Lei Complementar nº 200, de 30 de agosto de 2023</a></td>
  <td>Institui regime fiscal sustentável.</td>
</tr>
<tr><td colspan="2">Linha de rodapé sem link</td></tr>
<tr><td>sem link</td><td>nada</td></tr>
</table>
</body></html>`

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractActs_DistinctDates(t *testing.T) {
	x, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	records, err := x.ExtractActs(lcpListing, "https://www.planalto.gov.br/ccivil_03/leis/lcp.htm", model.ActComplementaryLaw)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (deduplicated): %+v", len(records), records)
	}

	r := records[0]
	if r.ActNumber != "101" || r.Year != 2000 {
		t.Errorf("number/year = %s/%d", r.ActNumber, r.Year)
	}
	if r.ActDate == nil || !r.ActDate.Equal(date(2000, time.May, 4)) {
		t.Errorf("ActDate = %v, want 2000-05-04", r.ActDate)
	}
	if r.OfficialGazetteDate == nil || !r.OfficialGazetteDate.Equal(date(2000, time.May, 5)) {
		t.Errorf("OfficialGazetteDate = %v, want 2000-05-05", r.OfficialGazetteDate)
	}
	if r.SourceURL != "https://www.planalto.gov.br/ccivil_03/leis/lcp/Lcp101.htm" {
		t.Errorf("SourceURL = %s", r.SourceURL)
	}
	if r.Abstract[:10] != "Estabelece" {
		t.Errorf("Abstract = %q", r.Abstract)
	}
	if r.Label() != "Lei Complementar nº 101/2000" {
		t.Errorf("Label = %q", r.Label())
	}

	r = records[1]
	if r.ActNumber != "200" || r.OfficialGazetteDate != nil || r.Year != 2023 {
		t.Errorf("second record = %+v", r)
	}
}

func TestExtractActs_NumberFromLinkText(t *testing.T) {
	page := `<table><tr><td><a href="/busca?id=77">Lei nº 15.290, de 1º de dezembro de 2025</a></td><td>Altera a Lei X.</td></tr></table>`
	x, _ := New(nil)
	records, err := x.ExtractActs(page, "https://portal.example", model.ActOrdinaryLaw)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ActNumber != "15.290" {
		t.Fatalf("records = %+v", records)
	}
	if !records[0].ActDate.Equal(date(2025, time.December, 1)) {
		t.Errorf("ActDate = %v", records[0].ActDate)
	}
}

func TestExtractActs_PlanaltoPatterns(t *testing.T) {
	page := `<table>
<tr><td><a href="L9394.htm">Lei nº 9.394, de 20 de dezembro de 1996</a></td><td>Estabelece as diretrizes e bases da educação nacional.</td></tr>
<tr><td><a href="Lcp101.htm">Lei Complementar nº 101</a></td><td>LRF</td></tr>
</table>`
	x, _ := New(nil)
	records, _ := x.ExtractActs(page, "https://www.planalto.gov.br/ccivil_03/leis/", model.ActOrdinaryLaw)
	// the Lcp link does not match the ordinary-law pattern but its text does
	if len(records) != 2 || records[0].ActNumber != "9.394" || records[1].ActNumber != "101" {
		t.Fatalf("records = %+v", records)
	}
}

func TestExtractActs_DottedFilenames(t *testing.T) {
	page := `<table>
<tr><td><a href="2004/lei/l10.973.htm">Lei nº 10.973, de 2 de dezembro de 2004</a></td><td>Dispõe sobre incentivos à inovação.</td></tr>
<tr><td><a href="L8666cons.htm">Lei nº 8.666, de 21 de junho de 1993</a></td><td>Licitações.</td></tr>
</table>`
	x, _ := New(nil)
	records, err := x.ExtractActs(page, "https://www.planalto.gov.br/ccivil_03/_ato2004-2006/", model.ActOrdinaryLaw)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ActNumber != "10.973" || records[1].ActNumber != "8.666" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Year != 2004 {
		t.Errorf("Year = %d, want 2004", records[0].Year)
	}
}

func TestNew_RejectsBadPattern(t *testing.T) {
	if _, err := New(map[model.ActType]string{model.ActDecree: `(`}); err == nil {
		t.Error("expected compile error")
	}
	if _, err := New(map[model.ActType]string{model.ActDecree: `/D\d+`}); err == nil {
		t.Error("expected missing capture group error")
	}
	x, _ := New(nil)
	if _, err := x.ExtractActs("", "", model.ActType("Portaria")); err == nil {
		t.Error("expected unknown type error")
	}
}

func TestFormatActNumber(t *testing.T) {
	tests := map[string]string{
		"15290":   "15.290",
		"15.290":  "15.290",
		"015290":  "15.290",
		"101":     "101",
		"1234567": "1.234.567",
		"0":       "",
		"":        "",
		"12a":     "",
	}
	for in, want := range tests {
		if got := FormatActNumber(in); got != want {
			t.Errorf("FormatActNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseGazetteDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"Publicado no DOU de 5.5.2000", date(2000, time.May, 5), true},
		{"D.O.U. de 05/05/2000", date(2000, time.May, 5), true},
		{"DOU 31.12.99", date(1999, time.December, 31), true},
		{"DOU de 31.2.2000", time.Time{}, false},
		{"sem data", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseGazetteDate(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("ParseGazetteDate(%q) = %v, %v", tt.in, got, ok)
		}
	}
}

func TestParseActDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"Lei Complementar nº 101, de 4 de maio de 2000", date(2000, time.May, 4), true},
		{"Lei nº 14.133, de 1º de abril de 2021", date(2021, time.April, 1), true},
		{"DECRETO-LEI Nº 5.452, DE 1º DE MAIO DE 1943", date(1943, time.May, 1), true},
		{"de 10 de MARÇO de 2010", date(2010, time.March, 10), true},
		{"de 30 de fevereiro de 2010", time.Time{}, false},
		{"de 4 de brumário de 2000", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseActDate(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("ParseActDate(%q) = %v, %v", tt.in, got, ok)
		}
	}
}

func TestIdentifyAct(t *testing.T) {
	tests := []struct {
		line string
		want model.ActKey
		ok   bool
	}{
		{"LEI COMPLEMENTAR Nº 101, DE 4 DE MAIO DE 2000", model.ActKey{Type: model.ActComplementaryLaw, Number: "101", Year: 2000}, true},
		{"LEI Nº 8666, DE 21 DE JUNHO DE 1993", model.ActKey{Type: model.ActOrdinaryLaw, Number: "8.666", Year: 1993}, true},
		{"DECRETO-LEI No 5.452, DE 1º DE MAIO DE 1943", model.ActKey{Type: model.ActDecreeLaw, Number: "5.452", Year: 1943}, true},
		{"MEDIDA PROVISÓRIA Nº 1.303, DE 11 DE JUNHO DE 2025", model.ActKey{Type: model.ActProvisionalMeasure, Number: "1.303", Year: 2025}, true},
		{"Lei nº 15.290/2025", model.ActKey{Type: model.ActOrdinaryLaw, Number: "15.290", Year: 2025}, true},
		{"Presidência da República", model.ActKey{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := IdentifyAct(tt.line)
			if ok != tt.ok || got != tt.want {
				t.Errorf("IdentifyAct(%q) = %+v, %v; want %+v, %v", tt.line, got, ok, tt.want, tt.ok)
			}
		})
	}
}
