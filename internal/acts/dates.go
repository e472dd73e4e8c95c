package acts

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// "DOU de 5.5.2000", "D.O.U. de 05/05/2000", "Publicado no DOU 5.5.00"
	gazetteDate = regexp.MustCompile(`(?i)D\.?\s?O\.?\s?U\.?(?:\s+de)?\s+(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})\b`)

	// "de 4 de maio de 2000", "de 1º de abril de 2021"
	actDate = regexp.MustCompile(`(?i)\bde\s+(\d{1,2})\s*(?:º|°|o)?\s+de\s+(\p{L}+)\s+de\s+(\d{4})\b`)
)

var months = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"março":     time.March,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
}

// ParseGazetteDate finds the official-gazette publication date in free text
func ParseGazetteDate(text string) (time.Time, bool) {
	m := gazetteDate.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 1900
		if year < 1930 {
			year += 100
		}
	} else if len(m[3]) == 3 {
		return time.Time{}, false
	}
	return makeDate(year, time.Month(month), day)
}

// ParseActDate finds the enactment date written out in words
func ParseActDate(text string) (time.Time, bool) {
	for _, m := range actDate.FindAllStringSubmatch(text, -1) {
		month, ok := months[strings.ToLower(m[2])]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if t, ok := makeDate(year, month, day); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// makeDate rejects dates that time.Date would silently roll over
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
