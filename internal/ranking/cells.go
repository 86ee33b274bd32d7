package ranking

import (
	"strings"

	"golang.org/x/net/html"
)

// Cell is one leaf table cell lifted out of the document, in DOM order.
// Structural nesting is discarded; only the visible text and any embedded
// anchor targets survive.
type Cell struct {
	Text  string
	Hrefs []string
}

// flattenCells parses the markup tolerantly and returns every table cell in
// document order. Nested cells are collected as well, matching a flat
// find-all over the document rather than a row-by-row traversal.
func flattenCells(markup string) []Cell {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	var cells []Cell
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "td" {
			cells = append(cells, Cell{
				Text:  nodeText(n),
				Hrefs: nodeHrefs(n),
			})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return cells
}

// visibleText returns the concatenated text content of the document,
// excluding script and style bodies.
func visibleText(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return sb.String()
}

// nodeText concatenates the stripped text of all descendant text nodes.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// nodeHrefs collects href attributes of all descendant anchors.
func nodeHrefs(n *html.Node) []string {
	var hrefs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					hrefs = append(hrefs, attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return hrefs
}
