// Package document is the parsed-page capability the extractors consume.
//
// Extractors only need find-one, find-all, attribute and text lookups, so
// they depend on the Node interface rather than on a parsing library. Parse
// builds a Node tree with goquery.
package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is an element (or document root) of a parsed page.
type Node interface {
	// Find returns every descendant matching a CSS selector, in document order.
	Find(selector string) []Node
	// First returns the first descendant matching a CSS selector.
	First(selector string) (Node, bool)
	// Attr returns an attribute value.
	Attr(name string) (string, bool)
	// Text returns the text content with surrounding whitespace trimmed.
	Text() string
	// Classes returns the class attribute split on whitespace.
	Classes() []string
	// Contents returns the direct children as text: text nodes verbatim,
	// elements as their full text, comments skipped.
	Contents() []string
}

// Parse reads an HTML document. The reader must yield UTF-8.
func Parse(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &selection{sel: doc.Selection}, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(s string) (Node, error) {
	return Parse(strings.NewReader(s))
}

type selection struct {
	sel *goquery.Selection
}

func (s *selection) Find(selector string) []Node {
	found := s.sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, sel *goquery.Selection) {
		nodes = append(nodes, &selection{sel: sel})
	})
	return nodes
}

func (s *selection) First(selector string) (Node, bool) {
	found := s.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return &selection{sel: found}, true
}

func (s *selection) Attr(name string) (string, bool) {
	return s.sel.Attr(name)
}

func (s *selection) Text() string {
	return strings.TrimSpace(s.sel.Text())
}

func (s *selection) Classes() []string {
	class, ok := s.sel.Attr("class")
	if !ok {
		return nil
	}
	return strings.Fields(class)
}

func (s *selection) Contents() []string {
	out := make([]string, 0)
	if len(s.sel.Nodes) == 0 {
		return out
	}
	for c := s.sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out = append(out, c.Data)
		case html.ElementNode:
			out = append(out, nodeText(c))
		}
	}
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// HasClass reports whether n carries class.
func HasClass(n Node, class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// FirstText returns the trimmed text of the first match of selector.
func FirstText(n Node, selector string) (string, bool) {
	found, ok := n.First(selector)
	if !ok {
		return "", false
	}
	return found.Text(), true
}
