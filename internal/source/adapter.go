// Package source cleans portal HTML before it reaches the normalizer. Each
// portal gets an adapter; unknown hosts fall back to the generic one.
package source

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Adapter prepares one portal's pages for structuring
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(url string, contentType string) bool

	// Clean edits the parsed page in place
	Clean(doc *html.Node, url string) error
}

// Registry manages portal adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{}
	registry.Register(NewPlanaltoAdapter())
	registry.generic = NewGenericAdapter()
	return registry
}

// Register adds an adapter ahead of the generic fallback
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the first adapter accepting the URL, or the generic one
func (r *Registry) FindAdapter(url string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(url, contentType) {
			return adapter
		}
	}
	return r.generic
}

// Clean parses raw, applies the matching adapter and renders the result.
// Plain text passes through untouched.
func (r *Registry) Clean(raw, url, contentType string) (string, string, error) {
	if !looksLikeHTML(raw, contentType) {
		return raw, "none", nil
	}

	adapter := r.FindAdapter(url, contentType)
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", adapter.Name(), fmt.Errorf("parse html: %w", err)
	}
	if err := adapter.Clean(doc, url); err != nil {
		return "", adapter.Name(), fmt.Errorf("%s adapter: %w", adapter.Name(), err)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", adapter.Name(), fmt.Errorf("render html: %w", err)
	}
	return buf.String(), adapter.Name(), nil
}

func looksLikeHTML(raw, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	if strings.HasPrefix(ct, "text/plain") {
		return false
	}
	head := strings.ToLower(raw[:min(len(raw), 1024)])
	return strings.Contains(head, "<html") || strings.Contains(head, "<body") ||
		strings.Contains(head, "<p") || strings.Contains(head, "<div") || strings.Contains(head, "<!doctype")
}

// removeAll detaches every element for which match is true
func removeAll(n *html.Node, match func(*html.Node) bool) int {
	removed := 0
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && match(c) {
			n.RemoveChild(c)
			removed++
		} else {
			removed += removeAll(c, match)
		}
		c = next
	}
	return removed
}

// unwrapAll replaces every matching element with its children
func unwrapAll(n *html.Node, match func(*html.Node) bool) int {
	unwrapped := 0
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		unwrapped += unwrapAll(c, match)
		if c.Type == html.ElementNode && match(c) {
			for gc := c.FirstChild; gc != nil; {
				gnext := gc.NextSibling
				c.RemoveChild(gc)
				n.InsertBefore(gc, c)
				gc = gnext
			}
			n.RemoveChild(c)
			unwrapped++
		}
		c = next
	}
	return unwrapped
}

func hasTag(names ...string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, name := range names {
			if n.Data == name {
				return true
			}
		}
		return false
	}
}

// getAttribute gets an attribute value from a node
func getAttribute(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttribute(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
