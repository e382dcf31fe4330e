package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// WikipediaAdapter selects article prose on Wikipedia pages
type WikipediaAdapter struct {
	BaseAdapter
	noiseClasses []string
	stopSections []string
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{
		noiseClasses: []string{
			"infobox", "navbox", "reference", "reflist", "mw-editsection",
			"hatnote", "thumb", "metadata", "sidebar", "toc", "shortdescription",
		},
		stopSections: []string{
			"references", "notes", "see also", "external links", "further reading", "bibliography",
		},
	}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	return strings.Contains(rawURL, "wikipedia.org")
}

// ContentRoot returns the parser output with citations, infoboxes and
// trailing reference sections removed
func (a *WikipediaAdapter) ContentRoot(doc *html.Node) *html.Node {
	content := a.FindFirst(doc, func(n *html.Node) bool {
		return a.IsElement(n, "div") &&
			(a.HasClass(n, "mw-parser-output") || a.GetAttribute(n, "id") == "mw-content-text")
	})
	if content == nil {
		return nil
	}

	a.Prune(content, func(n *html.Node) bool {
		if a.IsElement(n, "style", "figure") {
			return true
		}
		for _, class := range a.noiseClasses {
			if a.HasClass(n, class) {
				return true
			}
		}
		return false
	})
	a.truncateAtStopSection(content)

	return content
}

// truncateAtStopSection drops the first reference-style h2 and every node
// after it at the same depth
func (a *WikipediaAdapter) truncateAtStopSection(content *html.Node) {
	header := a.FindFirst(content, func(n *html.Node) bool {
		if !a.IsElement(n, "h2") {
			return false
		}
		title := strings.ToLower(textOf(n))
		for _, stop := range a.stopSections {
			if title == stop {
				return true
			}
		}
		return false
	})
	if header == nil {
		return
	}

	// Newer skins wrap headings in <div class="mw-heading">
	start := header
	if p := header.Parent; p != nil && p != content && a.HasClass(p, "mw-heading") {
		start = p
	}

	parent := start.Parent
	for n := start; n != nil; {
		next := n.NextSibling
		parent.RemoveChild(n)
		n = next
	}
}

// textOf returns the text under n with whitespace collapsed. Element
// boundaries count as a word break so sibling blocks do not run together.
func textOf(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			buf.WriteByte(' ')
			defer buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
