package validate

import (
	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/segment"
)

// maxMissingListed caps the missing-number list on huge codes
const maxMissingListed = 200

// Measure computes the extraction completeness of the article numbering
func Measure(elements []model.DocumentElement) model.Completeness {
	var c model.Completeness
	found := make(map[int]bool)
	prev := 0
	for _, e := range elements {
		if e.Kind != model.KindArticle {
			continue
		}
		n, _, ok := segment.ParseArticle(e.Number)
		if !ok {
			n, _, ok = segment.ParseArticle(e.Text)
		}
		if !ok {
			continue
		}
		if prev > 0 && n-prev > 1 {
			c.Gaps++
		}
		prev = n
		found[n] = true
		if n > c.HighestNumber {
			c.HighestNumber = n
		}
	}

	c.ArticlesFound = len(found)
	if c.HighestNumber > 0 {
		c.Ratio = float64(c.ArticlesFound) / float64(c.HighestNumber)
	}
	for n := 1; n <= c.HighestNumber && len(c.Missing) < maxMissingListed; n++ {
		if !found[n] {
			c.Missing = append(c.Missing, n)
		}
	}
	return c
}

// NeedsCorrection decides whether a corrective pass is worth invoking: the
// numbering is incomplete with several gaps, or truncation/duplication
// warnings pile up.
func (v *Validator) NeedsCorrection(c model.Completeness, summary model.ValidationSummary) bool {
	if c.Ratio < v.cfg.CompletenessThreshold && c.Gaps > v.cfg.MaxGaps {
		return true
	}
	structural := summary.ByRule[model.RuleTruncated] +
		summary.ByRule[model.RuleDuplicateMarker] +
		summary.ByRule[model.RuleDuplicateArticle]
	return structural > v.cfg.MaxStructuralWarnings
}
