package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ActType enumerates the kinds of legal acts listed by the portal
type ActType string

const (
	ActOrdinaryLaw             ActType = "OrdinaryLaw"
	ActComplementaryLaw        ActType = "ComplementaryLaw"
	ActConstitutionalAmendment ActType = "ConstitutionalAmendment"
	ActProvisionalMeasure      ActType = "ProvisionalMeasure"
	ActDecree                  ActType = "Decree"
	ActDecreeLaw               ActType = "DecreeLaw"
	ActBill                    ActType = "Bill"
	ActComplementaryBill       ActType = "ComplementaryBill"
)

// ActTypes lists every supported act type
var ActTypes = []ActType{
	ActOrdinaryLaw,
	ActComplementaryLaw,
	ActConstitutionalAmendment,
	ActProvisionalMeasure,
	ActDecree,
	ActDecreeLaw,
	ActBill,
	ActComplementaryBill,
}

// ParseActType resolves an act type by name, case-insensitively. The
// planalto.gov.br path prefixes (lei, lcp, emc, mpv, dec, del) are accepted
// too.
func ParseActType(s string) (ActType, bool) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, t := range ActTypes {
		if strings.ToLower(string(t)) == key {
			return t, true
		}
	}
	switch key {
	case "lei", "l":
		return ActOrdinaryLaw, true
	case "lcp", "leicomplementar":
		return ActComplementaryLaw, true
	case "emc", "emendaconstitucional":
		return ActConstitutionalAmendment, true
	case "mpv", "medidaprovisoria", "medidaprovisória":
		return ActProvisionalMeasure, true
	case "dec", "decreto":
		return ActDecree, true
	case "del", "decretolei":
		return ActDecreeLaw, true
	case "pl":
		return ActBill, true
	case "plp":
		return ActComplementaryBill, true
	}
	return "", false
}

// Label returns the Portuguese act name used in titles and prompts
func (t ActType) Label() string {
	switch t {
	case ActOrdinaryLaw:
		return "Lei"
	case ActComplementaryLaw:
		return "Lei Complementar"
	case ActConstitutionalAmendment:
		return "Emenda Constitucional"
	case ActProvisionalMeasure:
		return "Medida Provisória"
	case ActDecree:
		return "Decreto"
	case ActDecreeLaw:
		return "Decreto-Lei"
	case ActBill:
		return "Projeto de Lei"
	case ActComplementaryBill:
		return "Projeto de Lei Complementar"
	default:
		return string(t)
	}
}

// ActRecord is one row scraped from a legislative portal listing
type ActRecord struct {
	ActNumber           string     `json:"act_number"` // formatted, e.g. "15.290"
	ActType             ActType    `json:"act_type"`
	Abstract            string     `json:"abstract,omitempty"`
	OfficialGazetteDate *time.Time `json:"official_gazette_date,omitempty"`
	ActDate             *time.Time `json:"act_date,omitempty"`
	Year                int        `json:"year,omitempty"`
	SourceURL           string     `json:"source_url"`
}

// Key returns the deduplication key of the record
func (r ActRecord) Key() ActKey {
	return ActKey{Type: r.ActType, Number: r.ActNumber, Year: r.Year}
}

// Label is the human title, e.g. "Lei Complementar nº 101/2000"
func (r ActRecord) Label() string {
	return r.Key().Label()
}

// ActKey identifies an act across scrapes and persistence
type ActKey struct {
	Type   ActType `json:"type"`
	Number string  `json:"number"`
	Year   int     `json:"year"`
}

// String renders the key as "Type:Number:Year"
func (k ActKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.Type, k.Number, k.Year)
}

// Label renders the key the way acts are cited
func (k ActKey) Label() string {
	if k.Year > 0 {
		return fmt.Sprintf("%s nº %s/%d", k.Type.Label(), k.Number, k.Year)
	}
	return fmt.Sprintf("%s nº %s", k.Type.Label(), k.Number)
}

// EmentaVerbs are the verbs that conventionally open an ementa
var EmentaVerbs = []string{
	"Dispõe", "Altera", "Institui", "Estabelece", "Autoriza", "Cria",
	"Modifica", "Regulamenta", "Aprova", "Dá", "Denomina", "Acrescenta",
	"Revoga", "Inclui", "Fixa", "Estima", "Inscreve", "Confere", "Concede",
}

// StartsWithEmentaVerb reports whether s opens with one of EmentaVerbs as a
// whole word
func StartsWithEmentaVerb(s string) bool {
	s = strings.TrimSpace(s)
	for _, verb := range EmentaVerbs {
		if !strings.HasPrefix(s, verb) {
			continue
		}
		rest := s[len(verb):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
