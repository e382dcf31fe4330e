// Package extract turns fetched documents into plain text and page signals.
package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedElements never contribute text
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// ParseHTML parses markup into a node tree. The parser is lenient and only
// fails on reader errors.
func ParseHTML(markup string) (*html.Node, error) {
	return html.Parse(strings.NewReader(markup))
}

// StripMarkup returns the visible text of markup with whitespace collapsed
func StripMarkup(markup string) string {
	doc, err := ParseHTML(markup)
	if err != nil {
		return CollapseWhitespace(markup)
	}
	return NodeText(doc)
}

// NodeText returns the visible text below n with whitespace collapsed
func NodeText(n *html.Node) string {
	if n == nil {
		return ""
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteByte(' ')
			return
		case html.ElementNode:
			if skippedElements[node.Data] {
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return CollapseWhitespace(buf.String())
}

// CollapseWhitespace replaces every whitespace run with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
