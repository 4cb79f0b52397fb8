// Package parser turns the HTML fragments carried in RSS entry bodies into
// plain text suitable for LLM prompting and storage.
package parser

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips markup from an HTML fragment, returning the visible
// text with single-space separation. Script and style contents are
// excluded. Input that is not HTML comes back trimmed but otherwise
// untouched.
func PlainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}

	f(doc)
	return b.String()
}
