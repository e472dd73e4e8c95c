// Package acts extracts act records from legislative portal listing pages.
package acts

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/estatuto/internal/model"
)

var (
	// "nº 101", "Nº 15.290", "n.º 8.666"
	numberInText = regexp.MustCompile(`(?i)\bn\.?\s?[º°o]\.?\s*(\d{1,3}(?:\.\d{3})+|\d+)`)

	// a year path segment, or the "/2000" of a cited act
	yearInURL  = regexp.MustCompile(`/((?:18|19|20)\d{2})(?:/|$)`)
	yearInText = regexp.MustCompile(`\d/((?:18|19|20)\d{2})\b`)
)

// Extractor turns listing rows into act records
type Extractor struct {
	patterns map[model.ActType]*regexp.Regexp
}

// New compiles the per-type act number patterns. Types missing from
// patterns fall back to the planalto defaults.
func New(patterns map[model.ActType]string) (*Extractor, error) {
	x := &Extractor{patterns: make(map[model.ActType]*regexp.Regexp)}
	for t, p := range model.DefaultNumberPatterns() {
		if custom, ok := patterns[t]; ok && custom != "" {
			p = custom
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("number pattern for %s: %w", t, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("number pattern for %s has no capture group", t)
		}
		x.patterns[t] = re
	}
	for t, p := range patterns {
		if _, ok := x.patterns[t]; ok {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("number pattern for %s: %w", t, err)
		}
		x.patterns[t] = re
	}
	return x, nil
}

// ExtractActs parses two-cell table rows: the first cell holds the act link
// and the gazette note, the second the abstract. Relative links resolve
// against baseURL. Rows are deduplicated by act key, first row wins.
func (x *Extractor) ExtractActs(html, baseURL string, actType model.ActType) ([]model.ActRecord, error) {
	pattern, ok := x.patterns[actType]
	if !ok {
		return nil, fmt.Errorf("unknown act type: %s", actType)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	base, _ := url.Parse(baseURL)
	seen := make(map[model.ActKey]bool)
	var records []model.ActRecord
	skipped := 0

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() != 2 {
			return
		}
		first, second := cells.Eq(0), cells.Eq(1)

		link := first.Find("a[href]").First()
		if link.Length() == 0 {
			skipped++
			return
		}
		href, _ := link.Attr("href")
		linkText := collapse(link.Text())
		cellText := collapse(first.Text())

		rec := model.ActRecord{
			ActType:   actType,
			Abstract:  collapse(second.Text()),
			SourceURL: resolve(base, href),
		}

		// FormatActNumber drops the dots of dotted filenames
		number := ""
		if m := pattern.FindStringSubmatch(rec.SourceURL); m != nil {
			number = m[1]
		} else if m := numberInText.FindStringSubmatch(linkText); m != nil {
			number = m[1]
		}
		rec.ActNumber = FormatActNumber(number)
		if rec.ActNumber == "" {
			skipped++
			return
		}

		if t, ok := ParseActDate(linkText); ok {
			rec.ActDate = &t
		} else if t, ok := ParseActDate(cellText); ok {
			rec.ActDate = &t
		}
		if t, ok := ParseGazetteDate(cellText); ok {
			rec.OfficialGazetteDate = &t
		}
		rec.Year = yearOf(rec, linkText)

		key := rec.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		records = append(records, rec)
	})

	log.Debug().
		Str("type", string(actType)).
		Int("records", len(records)).
		Int("skipped", skipped).
		Msg("Extracted act records")

	return records, nil
}

// yearOf prefers the enactment date, then the gazette date, then the URL
func yearOf(rec model.ActRecord, linkText string) int {
	switch {
	case rec.ActDate != nil:
		return rec.ActDate.Year()
	case rec.OfficialGazetteDate != nil:
		return rec.OfficialGazetteDate.Year()
	}
	if m := yearInText.FindStringSubmatch(linkText); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	if m := yearInURL.FindStringSubmatch(rec.SourceURL); m != nil {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	return 0
}

// FormatActNumber renders digits with dot thousands separators: "15290" and
// "015.290" both become "15.290". Non-numeric input yields "".
func FormatActNumber(raw string) string {
	digits := strings.TrimLeft(strings.ReplaceAll(strings.TrimSpace(raw), ".", ""), "0")
	if digits == "" {
		return ""
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ""
		}
	}

	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
