package adapters

import (
	"golang.org/x/net/html"
)

// GenericAdapter is the fallback adapter for unknown domains
type GenericAdapter struct {
	BaseAdapter
}

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

// ContentRoot prefers an article element, then main, then the body.
// Page chrome (nav, header, footer, aside, form) is pruned.
func (a *GenericAdapter) ContentRoot(doc *html.Node) *html.Node {
	root := a.FindFirst(doc, func(n *html.Node) bool {
		return a.IsElement(n, "article")
	})
	if root == nil {
		root = a.FindFirst(doc, func(n *html.Node) bool {
			return a.IsElement(n, "main") || a.GetAttribute(n, "role") == "main"
		})
	}
	if root == nil {
		root = a.FindFirst(doc, func(n *html.Node) bool {
			return a.IsElement(n, "body")
		})
	}
	if root == nil {
		return nil
	}

	a.Prune(root, func(n *html.Node) bool {
		return a.IsElement(n, "nav", "header", "footer", "aside", "form")
	})
	return root
}
