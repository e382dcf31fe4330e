package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// dateMetaKeys are property or name values that carry a publish date
var dateMetaKeys = map[string]bool{
	"article:published_time": true,
	"date":                   true,
	"pubdate":                true,
}

// PageSignals are the provenance signals of an HTML page
type PageSignals struct {
	HasCanonical bool
	HasOG        bool
	HasDateMeta  bool
	LinkCount    int
	Text         string // Visible text of the whole page
}

// ExtractSignals walks doc once and collects its provenance signals
func ExtractSignals(doc *html.Node) PageSignals {
	var s PageSignals
	if doc == nil {
		return s
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				if hasToken(attr(n, "rel"), "canonical") {
					s.HasCanonical = true
				}
			case "meta":
				property := strings.ToLower(attr(n, "property"))
				name := strings.ToLower(attr(n, "name"))
				if strings.HasPrefix(property, "og:") {
					s.HasOG = true
				}
				if dateMetaKeys[property] || dateMetaKeys[name] {
					s.HasDateMeta = true
				}
			case "a":
				s.LinkCount++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	s.Text = NodeText(doc)
	return s
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
