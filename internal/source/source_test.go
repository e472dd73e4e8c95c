package source

import (
	"strings"
	"testing"
)

func TestRegistry_FindAdapter(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.planalto.gov.br/ccivil_03/leis/lcp/lcp101.htm", "planalto"},
		{"http://planalto.gov.br/x.htm", "planalto"},
		{"https://www.camara.leg.br/proposicoesWeb/fichadetramitacao", "generic"},
		{"https://planalto.gov.br.evil.example/x", "generic"},
		{"::not a url", "generic"},
	}
	for _, tt := range tests {
		if got := r.FindAdapter(tt.url, "text/html").Name(); got != tt.want {
			t.Errorf("FindAdapter(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestPlanalto_DropsStruckWording(t *testing.T) {
	page := `<html><body>
<p><a name="art1"></a>Art. 1º Esta Lei entra em vigor na data de sua publicação.</p>
<p><strike>Art. 2º Fica revogado o regime anterior.</strike></p>
<p><a name="art2">Art. 2º</a> Revogam-se as disposições em contrário.</p>
<p><span style="TEXT-DECORATION: line-through">§ 3º texto antigo</span></p>
<p><a href="../L1234.htm">Lei nº 1.234</a></p>
</body></html>`

	out, name, err := NewRegistry().Clean(page, "https://www.planalto.gov.br/ccivil_03/leis/L9999.htm", "text/html; charset=iso-8859-1")
	if err != nil {
		t.Fatal(err)
	}
	if name != "planalto" {
		t.Errorf("adapter = %s", name)
	}
	for _, gone := range []string{"regime anterior", "texto antigo", `name="art1"`, `name="art2"`} {
		if strings.Contains(out, gone) {
			t.Errorf("output still contains %q", gone)
		}
	}
	for _, kept := range []string{"Art. 2º Revogam-se", "Art. 1º Esta Lei", `href="../L1234.htm"`} {
		if !strings.Contains(out, kept) {
			t.Errorf("output lost %q:\n%s", kept, out)
		}
	}
}

func TestGeneric_KeepsStruckText(t *testing.T) {
	page := `<div><script>var x=1;</script><s>antigo</s> atual</div>`
	out, name, err := NewRegistry().Clean(page, "https://example.org/lei", "")
	if err != nil {
		t.Fatal(err)
	}
	if name != "generic" || strings.Contains(out, "var x") || !strings.Contains(out, "antigo") {
		t.Errorf("adapter %s produced %q", name, out)
	}
}

func TestRegistry_PlainTextPassesThrough(t *testing.T) {
	text := "Art. 1º Texto simples.\nArt. 2º Outro."
	out, name, err := NewRegistry().Clean(text, "https://www.planalto.gov.br/x.txt", "text/plain")
	if err != nil || out != text || name != "none" {
		t.Errorf("Clean = %q, %s, %v", out, name, err)
	}
}
