package source

import "golang.org/x/net/html"

// GenericAdapter is the fallback adapter for unknown portals
type GenericAdapter struct{}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(url string, contentType string) bool {
	return true
}

// Clean only drops script and style; the normalizer handles the rest
func (a *GenericAdapter) Clean(doc *html.Node, url string) error {
	removeAll(doc, hasTag("script", "style", "noscript", "template"))
	return nil
}
