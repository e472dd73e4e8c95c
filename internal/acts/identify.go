package acts

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/estatuto/internal/model"
)

// "LEI COMPLEMENTAR Nº 101, DE 4 DE MAIO DE 2000", "DECRETO-LEI No 5.452"
var identification = regexp.MustCompile(`(?i)^\s*(projeto de lei complementar|projeto de lei|lei complementar|lei|decreto-lei|decreto|medida provis[óo]ria|emenda constitucional)\s+n\.?\s?[º°o]?\.?\s*(\d{1,3}(?:\.\d{3})+|\d+)(?:\s*/\s*((?:18|19|20)\d{2}))?`)

var identificationTypes = map[string]model.ActType{
	"projeto de lei complementar": model.ActComplementaryBill,
	"projeto de lei":              model.ActBill,
	"lei complementar":            model.ActComplementaryLaw,
	"lei":                         model.ActOrdinaryLaw,
	"decreto-lei":                 model.ActDecreeLaw,
	"decreto":                     model.ActDecree,
	"medida provisória":           model.ActProvisionalMeasure,
	"medida provisoria":           model.ActProvisionalMeasure,
	"emenda constitucional":       model.ActConstitutionalAmendment,
}

// IdentifyAct derives the act key from an identification line such as
// "LEI Nº 8.666, DE 21 DE JUNHO DE 1993". The year comes from an explicit
// "/yyyy" or from the enactment date.
func IdentifyAct(line string) (model.ActKey, bool) {
	m := identification.FindStringSubmatch(line)
	if m == nil {
		return model.ActKey{}, false
	}
	t, ok := identificationTypes[strings.ToLower(m[1])]
	if !ok {
		return model.ActKey{}, false
	}
	key := model.ActKey{Type: t, Number: FormatActNumber(m[2])}
	if m[3] != "" {
		key.Year, _ = strconv.Atoi(m[3])
	} else if d, ok := ParseActDate(line); ok {
		key.Year = d.Year()
	}
	return key, key.Number != ""
}

// IdentifyElements looks for the key in the first ActIdentification element
func IdentifyElements(elements []model.DocumentElement) (model.ActKey, bool) {
	for _, e := range elements {
		if e.Kind == model.KindActIdentification {
			return IdentifyAct(e.Text)
		}
	}
	return model.ActKey{}, false
}
