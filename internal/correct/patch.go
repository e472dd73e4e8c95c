package correct

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/oracle"
	"github.com/ppiankov/estatuto/internal/segment"
)

// Replacement swaps the text of the element with the given order
type Replacement struct {
	Order int    `json:"order"`
	Text  string `json:"text"`
}

// Addition is a missing element to insert at Order
type Addition struct {
	Order  int    `json:"order"`
	Kind   string `json:"kind"`
	Number string `json:"number,omitempty"`
	Text   string `json:"text"`
}

// Patch is the oracle's structured answer
type Patch struct {
	Replacements []Replacement `json:"replacements"`
	Additions    []Addition    `json:"additions"`
}

// patchEntry is one item of the bare-array answer shape
type patchEntry struct {
	Order  int    `json:"order"`
	Kind   string `json:"kind,omitempty"`
	Number string `json:"number,omitempty"`
	Text   string `json:"text"`
	New    bool   `json:"new,omitempty"`
}

// UnmarshalJSON accepts the documented object shape and a bare array of
// entries; in the array shape an entry with a kind or "new": true is an
// addition.
func (p *Patch) UnmarshalJSON(data []byte) error {
	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "[") {
		var entries []patchEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		*p = Patch{}
		for _, e := range entries {
			if e.Kind != "" || e.New {
				p.Additions = append(p.Additions, Addition{Order: e.Order, Kind: e.Kind, Number: e.Number, Text: e.Text})
				continue
			}
			p.Replacements = append(p.Replacements, Replacement{Order: e.Order, Text: e.Text})
		}
		return nil
	}

	type object Patch
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return err
	}
	*p = Patch(o)
	return nil
}

// ParsePatch decodes the first JSON payload embedded in the answer
func ParsePatch(answer string) (Patch, error) {
	var p Patch
	if err := oracle.DecodeJSON(answer, &p); err != nil {
		return Patch{}, err
	}
	return p, nil
}

type mergeStats struct {
	replaced int
	added    int
	ignored  int
}

// Merge applies a patch: replacements in place by order, additions inserted
// before the element currently holding their order, then the sequence is
// re-sorted by kind priority and renumbered.
func Merge(elements []model.DocumentElement, patch Patch) []model.DocumentElement {
	out, _ := merge(slices.Clone(elements), patch)
	return out
}

func merge(elements []model.DocumentElement, patch Patch) ([]model.DocumentElement, mergeStats) {
	var stats mergeStats

	index := make(map[int]int, len(elements))
	for i, e := range elements {
		index[e.Order] = i
	}

	for _, r := range patch.Replacements {
		i, ok := index[r.Order]
		text := cleanText(r.Text)
		if !ok || text == "" {
			stats.ignored++
			continue
		}
		if text == elements[i].Text {
			continue
		}
		elements[i].Text = text
		elements[i].Span = model.Span{}
		stats.replaced++
	}

	articles := map[string]bool{}
	hasEmenta := false
	for _, e := range elements {
		if e.Kind == model.KindArticle {
			articles[articleLabel(e)] = true
		}
		hasEmenta = hasEmenta || e.Kind == model.KindEmenta
	}

	type pending struct {
		before int // insert before this original order
		elem   model.DocumentElement
	}
	var inserts []pending
	for _, a := range patch.Additions {
		kind, ok := model.ParseKind(a.Kind)
		text := cleanText(a.Text)
		if !ok || text == "" || a.Order <= 0 {
			stats.ignored++
			continue
		}
		elem := model.DocumentElement{Kind: kind, Number: strings.TrimSpace(a.Number), Text: text}
		switch kind {
		case model.KindArticle:
			if label, ok := segment.NormalizeArticleLabel(elem.Number); ok {
				elem.Number = label
			} else if label, ok := segment.NormalizeArticleLabel(text); ok {
				elem.Number = label
			}
			if elem.Number == "" || articles[elem.Number] {
				stats.ignored++
				continue
			}
			articles[elem.Number] = true
		case model.KindEmenta:
			if hasEmenta {
				stats.ignored++
				continue
			}
			hasEmenta = true
		}
		inserts = append(inserts, pending{before: a.Order, elem: elem})
	}

	if len(inserts) > 0 {
		slices.SortStableFunc(inserts, func(a, b pending) int { return a.before - b.before })
		merged := make([]model.DocumentElement, 0, len(elements)+len(inserts))
		j := 0
		for _, e := range elements {
			for j < len(inserts) && inserts[j].before <= e.Order {
				merged = append(merged, inserts[j].elem)
				j++
			}
			merged = append(merged, e)
		}
		for ; j < len(inserts); j++ {
			merged = append(merged, inserts[j].elem)
		}
		elements = merged
		stats.added = len(inserts)
	}

	if stats.ignored > 0 {
		log.Debug().Int("ignored", stats.ignored).Msg("Ignored unusable patch entries")
	}

	SortByKind(elements)
	return elements, stats
}

func cleanText(s string) string {
	return segment.CleanParentheticals(strings.TrimSpace(s), false)
}

func articleLabel(e model.DocumentElement) string {
	if label, ok := segment.NormalizeArticleLabel(e.Number); ok {
		return label
	}
	return e.Number
}

// SortByKind stably re-sorts elements by kind priority and renumbers them.
// Headings that sit among the articles rank with the article body so they
// keep their place in the text.
func SortByKind(elements []model.DocumentElement) {
	firstBody := -1
	for i, e := range elements {
		if e.Kind.IsArticleBody() {
			firstBody = i
			break
		}
	}

	ranks := make([]int, len(elements))
	for i, e := range elements {
		ranks[i] = e.Kind.Priority()
		if e.Kind.IsTitle() && firstBody >= 0 && i > firstBody {
			ranks[i] = model.KindArticle.Priority()
		}
	}

	idx := make([]int, len(elements))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return ranks[a] - ranks[b] })

	sorted := make([]model.DocumentElement, len(elements))
	for i, j := range idx {
		sorted[i] = elements[j]
	}
	copy(elements, sorted)
	model.Renumber(elements)
}
