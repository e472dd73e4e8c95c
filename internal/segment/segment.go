package segment

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/estatuto/internal/model"
)

var (
	// "Art. 1º", "Art 10.", "ART. 1.024", "Art. 7º-A"; a digit group is mandatory
	articleAnchor = regexp.MustCompile(`(?:Art|ART)\.?[ \t]*(\d{1,3}(?:\.\d{3})+|\d+)(?:[ \t]*[º°ª]|o\b)?(?:[-–]([A-Z]{1,2})\b)?`)

	paragraphAnchor = regexp.MustCompile(`§[ \t]*(\d+)(?:[ \t]*[º°ª]|o\b)?`)
	uniqueAnchor    = regexp.MustCompile(`(?:[Pp]ar[áa]grafo [úu]nico|PAR[ÁA]GRAFO [ÚU]NICO)`)
	itemAnchor      = regexp.MustCompile(`([IVXLCDM]{1,8})[ \t]*[-–—]`)
	clauseAnchor    = regexp.MustCompile(`([a-z]{1,2})\)`)
)

// Options configures a Segmenter
type Options struct {
	// KeepPlainParentheticals keeps parentheticals that are not
	// amendment-history notes, e.g. "(ISS)". Default drops all of them
	// except legal state markers.
	KeepPlainParentheticals bool
}

// Segmenter splits normalized legislative text into typed elements
type Segmenter struct {
	opts Options
}

// Segmentation is the result of one Segment call
type Segmentation struct {
	Elements []model.DocumentElement `json:"elements"`
	// LowConfidence is set when no article anchor was found and the whole
	// text was wrapped as a single Preamble
	LowConfidence bool `json:"low_confidence"`
	Anchors       int  `json:"anchors"`
}

// New creates a segmenter
func New(opts Options) *Segmenter {
	return &Segmenter{opts: opts}
}

// cut marks where an element starts in the normalized text
type cut struct {
	pos    int
	end    int // end of the marker itself
	kind   model.ElementKind
	number string
}

// Segment splits normalized text into an ordered element list. The result
// is order-preserving and every non-whitespace byte of the input lies in
// exactly one element span.
func (s *Segmenter) Segment(text string) Segmentation {
	if strings.TrimSpace(text) == "" {
		return Segmentation{LowConfidence: true}
	}

	anchors := findArticleAnchors(text)
	if len(anchors) == 0 {
		start, end := trimSpan(text, 0, len(text))
		return Segmentation{
			Elements: []model.DocumentElement{{
				Kind:  model.KindPreamble,
				Text:  s.clean(text[start:end]),
				Order: 1,
				Span:  model.Span{Start: start, End: end},
			}},
			LowConfidence: true,
		}
	}

	cuts := headerCuts(text, 0, anchors[0].pos)

	last := anchors[len(anchors)-1]
	trailerStart, trailer := trailerCuts(text, last.end)
	cuts = append(cuts, trailer...)
	cuts = append(cuts, headingCuts(text, anchors[0].pos, trailerStart)...)
	cuts = append(cuts, anchors...)

	// top-level boundaries bound each article's sub-marker search
	sort.SliceStable(cuts, func(i, j int) bool { return cuts[i].pos < cuts[j].pos })
	var subs []cut
	for i, c := range cuts {
		if c.kind != model.KindArticle {
			continue
		}
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1].pos
		}
		subs = append(subs, subMarkerCuts(text, c.end, end)...)
	}
	cuts = append(cuts, subs...)
	sort.SliceStable(cuts, func(i, j int) bool { return cuts[i].pos < cuts[j].pos })

	elements := make([]model.DocumentElement, 0, len(cuts))
	for i, c := range cuts {
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1].pos
		}
		start, stop := trimSpan(text, c.pos, end)
		if start >= stop {
			continue
		}
		elements = append(elements, model.DocumentElement{
			Kind:   c.kind,
			Number: c.number,
			Text:   s.clean(text[start:stop]),
			Span:   model.Span{Start: start, End: stop},
		})
	}
	model.Renumber(elements)

	return Segmentation{Elements: elements, Anchors: len(anchors)}
}

func (s *Segmenter) clean(raw string) string {
	return CleanParentheticals(raw, s.opts.KeepPlainParentheticals)
}

func findArticleAnchors(text string) []cut {
	var anchors []cut
	for _, m := range articleAnchor.FindAllStringSubmatchIndex(text, -1) {
		if m[2] < 0 || !anchoredAt(text, m[0]) {
			continue
		}
		n, ok := parseDigits(text[m[2]:m[3]])
		if !ok {
			continue
		}
		suffix := ""
		if m[4] >= 0 {
			suffix = text[m[4]:m[5]]
		}
		anchors = append(anchors, cut{
			pos:    m[0],
			end:    m[1],
			kind:   model.KindArticle,
			number: FormatArticle(n, suffix),
		})
	}
	return anchors
}

// subMarkerCuts finds paragraph, item and clause markers in [from, to)
func subMarkerCuts(text string, from, to int) []cut {
	if from >= to {
		return nil
	}
	region := text[from:to]
	var cuts []cut

	add := func(pos, end int, kind model.ElementKind, number string) {
		if !anchoredAt(text, from+pos) {
			return
		}
		cuts = append(cuts, cut{pos: from + pos, end: from + end, kind: kind, number: number})
	}

	for _, m := range paragraphAnchor.FindAllStringSubmatchIndex(region, -1) {
		if n, ok := parseDigits(region[m[2]:m[3]]); ok {
			add(m[0], m[1], model.KindParagraph, FormatParagraph(n))
		}
	}
	for _, m := range uniqueAnchor.FindAllStringIndex(region, -1) {
		add(m[0], m[1], model.KindParagraph, UniqueParagraph)
	}
	for _, m := range itemAnchor.FindAllStringSubmatchIndex(region, -1) {
		roman := region[m[2]:m[3]]
		if _, ok := ParseRoman(roman); ok {
			add(m[0], m[1], model.KindItem, roman)
		}
	}
	for _, m := range clauseAnchor.FindAllStringSubmatchIndex(region, -1) {
		add(m[0], m[1], model.KindClause, region[m[2]:m[3]]+")")
	}
	return cuts
}

// anchoredAt reports whether a marker at pos starts a structural unit: at
// the start of the text or a line, or after ".", ":" or ";" plus whitespace.
// Markers right after a quote belong to quoted amending text and are rejected.
func anchoredAt(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	i := pos
	for i > 0 && (text[i-1] == ' ' || text[i-1] == '\t') {
		i--
	}
	if i == 0 {
		return true
	}
	switch text[i-1] {
	case '\n':
		return true
	case '.', ':', ';':
		return i < pos
	}
	return false
}

func trimSpan(text string, start, end int) (int, int) {
	for start < end && isSpace(text[start]) {
		start++
	}
	for end > start && isSpace(text[end-1]) {
		end--
	}
	return start, end
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
