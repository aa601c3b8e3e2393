package xedit

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// parse returns the document and its first element with the given tag.
func parse(t *testing.T, content, tag string) (*html.Node, *html.Node) {
	t.Helper()
	doc, err := ParseHTML(content)
	require.NoError(t, err)
	el := find(doc, tag)
	require.NotNil(t, el, "no <%s> in %s", tag, content)
	return doc, el
}

// find returns the first element with the given tag in document order.
func find(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func element(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag}
}

func doctype() *html.Node {
	return &html.Node{Type: html.DoctypeNode, Data: "html"}
}

// render serializes n with every element's attributes sorted, so trees that
// differ only in attribute order render the same.
func render(t *testing.T, n *html.Node) string {
	t.Helper()
	clone := CloneNode(n)
	sortAttrs(clone)
	out, err := RenderNode(clone)
	require.NoError(t, err)
	return out
}

func sortAttrs(n *html.Node) {
	sort.SliceStable(n.Attr, func(i, j int) bool {
		return qualifiedName(n.Attr[i]) < qualifiedName(n.Attr[j])
	})
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sortAttrs(c)
	}
}
