package loader

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText 去除 HTML 标签与实体，并把连续空白压成单个空格
func PlainText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := html.Parse(strings.NewReader(s)); err == nil {
			var sb strings.Builder
			var walk func(n *html.Node)
			walk = func(n *html.Node) {
				switch {
				case n.Type == html.TextNode:
					sb.WriteString(n.Data)
				case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
					return
				case n.Type == html.ElementNode && (n.Data == "br" || n.Data == "p" || n.Data == "div" || n.Data == "li"):
					sb.WriteString(" ")
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
			}
			walk(doc)
			s = sb.String()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
