package source

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// PlanaltoAdapter cleans compiled-law pages from planalto.gov.br. Those pages
// keep superseded wording inline as struck-through text next to the current
// wording, and sprinkle bookmark anchors through the articles.
type PlanaltoAdapter struct {
	hosts []string
}

// NewPlanaltoAdapter creates the planalto.gov.br adapter
func NewPlanaltoAdapter() *PlanaltoAdapter {
	return &PlanaltoAdapter{
		hosts: []string{"planalto.gov.br", "presidencia.gov.br"},
	}
}

// Name returns the adapter name
func (a *PlanaltoAdapter) Name() string {
	return "planalto"
}

// CanHandle matches the presidency's legislation hosts
func (a *PlanaltoAdapter) CanHandle(rawURL string, contentType string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range a.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Clean drops struck-through text and unwraps bookmark anchors
func (a *PlanaltoAdapter) Clean(doc *html.Node, rawURL string) error {
	struck := removeAll(doc, hasTag("strike", "s", "del", "script", "style"))
	struck += removeAll(doc, func(n *html.Node) bool {
		style := strings.ToLower(strings.ReplaceAll(getAttribute(n, "style"), " ", ""))
		return strings.Contains(style, "text-decoration:line-through")
	})

	bookmarks := unwrapAll(doc, func(n *html.Node) bool {
		return n.Data == "a" && hasAttribute(n, "name") && !hasAttribute(n, "href")
	})

	log.Debug().
		Str("url", rawURL).
		Int("struck", struck).
		Int("bookmarks", bookmarks).
		Msg("Cleaned planalto page")
	return nil
}
