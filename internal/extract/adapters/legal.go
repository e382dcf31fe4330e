package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// LegalAdapter selects the provisions of legislation and government pages
type LegalAdapter struct {
	BaseAdapter
	legalDomains map[string]bool
}

// NewLegalAdapter creates a new legal document adapter
func NewLegalAdapter() *LegalAdapter {
	return &LegalAdapter{
		legalDomains: map[string]bool{
			"legislation.gov.uk":  true,
			"irishstatutebook.ie": true,
			"oireachtas.ie":       true,
			"eur-lex.europa.eu":   true,
			"law.cornell.edu":     true,
			"gov.uk":              true,
			"gov.ie":              true,
		},
	}
}

// Name returns the adapter name
func (a *LegalAdapter) Name() string {
	return "legal"
}

// CanHandle checks if this is a legal document URL
func (a *LegalAdapter) CanHandle(rawURL string, contentType string) bool {
	lowerURL := strings.ToLower(rawURL)

	for domain := range a.legalDomains {
		if strings.Contains(lowerURL, domain) {
			return true
		}
	}

	return strings.Contains(lowerURL, "/statute") ||
		strings.Contains(lowerURL, "/legislation") ||
		strings.Contains(lowerURL, "/regulation")
}

// ContentRoot returns the main region of the page without navigation,
// breadcrumbs or table-of-contents blocks
func (a *LegalAdapter) ContentRoot(doc *html.Node) *html.Node {
	root := a.FindFirst(doc, func(n *html.Node) bool {
		return a.IsElement(n, "main")
	})
	if root == nil {
		root = a.FindFirst(doc, func(n *html.Node) bool {
			return a.IsElement(n, "article") || a.GetAttribute(n, "role") == "main"
		})
	}
	if root == nil {
		return nil
	}

	a.Prune(root, func(n *html.Node) bool {
		if a.IsElement(n, "nav", "aside", "footer") {
			return true
		}
		return a.HasClass(n, "breadcrumb") || a.HasClass(n, "breadcrumbs") || a.HasClass(n, "toc")
	})
	return root
}
