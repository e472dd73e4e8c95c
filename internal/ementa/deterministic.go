package ementa

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ppiankov/estatuto/internal/model"
	"github.com/ppiankov/estatuto/internal/normalize"
)

// redInk lists the colour spellings used for ementas on official pages
var redInk = []string{"#800000", "800000", "maroon", "rgb(128,0,0)", "#8b0000", "darkred"}

// Deterministic finds the ementa without any network access: red-ink text
// first, then the first line that opens with a conventional ementa verb.
type Deterministic struct{}

// NewDeterministic returns the deterministic tier
func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

// Name implements Strategy
func (d *Deterministic) Name() string {
	return "deterministic"
}

// Extract implements Strategy
func (d *Deterministic) Extract(_ context.Context, html, _ string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", ErrNotFound
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	// Struck-through text is superseded wording.
	doc.Find("script, style, strike, s, del").Remove()

	if text, ok := fromRedInk(doc); ok {
		return text, nil
	}
	if text, ok := fromVerbLine(doc); ok {
		return text, nil
	}
	return "", ErrNotFound
}

func fromRedInk(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find("font[color], [style]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !isRedInk(s) {
			return true
		}
		// Ementas split across several coloured runs read as their parent block.
		for _, sel := range []*goquery.Selection{s, s.Parent()} {
			if text, ok := Accept(sel.Text()); ok {
				found = text
				return false
			}
		}
		return true
	})
	return found, found != ""
}

func isRedInk(s *goquery.Selection) bool {
	if color, ok := s.Attr("color"); ok {
		if matchesRed(color) {
			return true
		}
	}
	if style, ok := s.Attr("style"); ok {
		for _, decl := range strings.Split(style, ";") {
			prop, value, ok := strings.Cut(decl, ":")
			if !ok || strings.TrimSpace(strings.ToLower(prop)) != "color" {
				continue
			}
			if matchesRed(value) {
				return true
			}
		}
	}
	return false
}

func matchesRed(value string) bool {
	v := strings.ToLower(strings.ReplaceAll(value, " ", ""))
	v = strings.TrimSuffix(v, "!important")
	for _, red := range redInk {
		if v == red {
			return true
		}
	}
	return false
}

func fromVerbLine(doc *goquery.Document) (string, bool) {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	raw, err := body.Html()
	if err != nil {
		return "", false
	}

	scanner := bufio.NewScanner(strings.NewReader(normalize.Normalize(raw)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !model.StartsWithEmentaVerb(line) {
			continue
		}
		if text, ok := Accept(line); ok {
			return text, true
		}
	}
	return "", false
}
