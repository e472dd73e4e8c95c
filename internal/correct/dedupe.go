package correct

import (
	"slices"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/segment"
)

// DropDuplicateMarkers removes earlier occurrences of a paragraph, item or
// clause marker repeated inside the same parent, keeping the last one. A
// dropped element takes its own sub-elements with it. The result is
// renumbered; the count of removed elements is returned.
func DropDuplicateMarkers(elements []model.DocumentElement) ([]model.DocumentElement, int) {
	out, n := dropDuplicates(slices.Clone(elements))
	model.Renumber(out)
	return out, n
}

// dropDuplicates keeps the original orders so verdicts still line up
func dropDuplicates(elements []model.DocumentElement) ([]model.DocumentElement, int) {
	drop := make([]bool, len(elements))
	seen := map[string]int{}
	var article, paragraph, item string

	for i, e := range elements {
		var key string
		switch e.Kind {
		case model.KindArticle:
			article = e.Number
			if label, ok := segment.NormalizeArticleLabel(e.Number); ok {
				article = label
			}
			paragraph, item = "", ""
			continue
		case model.KindParagraph:
			paragraph, item = e.Number, ""
			key = article + "|P|" + e.Number
		case model.KindItem:
			item = e.Number
			key = article + "|" + paragraph + "|I|" + e.Number
		case model.KindClause:
			key = article + "|" + paragraph + "|" + item + "|C|" + e.Number
		default:
			continue
		}
		if e.Number == "" {
			continue
		}
		if prev, ok := seen[key]; ok {
			markSubtree(elements, drop, prev)
		}
		seen[key] = i
	}

	n := 0
	out := elements[:0]
	for i, e := range elements {
		if drop[i] {
			n++
			continue
		}
		out = append(out, e)
	}
	return out, n
}

func depth(kind model.ElementKind) int {
	switch kind {
	case model.KindArticle:
		return 0
	case model.KindParagraph:
		return 1
	case model.KindItem:
		return 2
	case model.KindClause:
		return 3
	}
	return -1
}

// markSubtree drops elements[i] and the deeper body elements that follow it
func markSubtree(elements []model.DocumentElement, drop []bool, i int) {
	d := depth(elements[i].Kind)
	drop[i] = true
	for j := i + 1; j < len(elements); j++ {
		dj := depth(elements[j].Kind)
		if dj <= d {
			return
		}
		drop[j] = true
	}
}
