package xedit

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/net/html"
)

// Diff calculates the edit that turns target into a tree structurally equal
// to want. Nodes of want are never moved; missing nodes are inserted as
// clones. The result is an ordinary Complex edit, so applying it yields the
// edit that undoes it.
func Diff(target, want *html.Node) Edit {
	var edits Complex
	diffNodes(target, want, &edits)
	if edits == nil {
		edits = Complex{}
	}
	return edits
}

// sameNode reports whether a can be turned into b without replacing it.
func sameNode(a, b *html.Node) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case html.ElementNode:
		return a.Data == b.Data && a.Namespace == b.Namespace && attrsSettable(a, b)
	case html.DocumentNode:
		return true
	case html.DoctypeNode:
		return a.Data == b.Data && slices.Equal(a.Attr, b.Attr)
	}
	return a.Data == b.Data
}

// attrsSettable reports whether SetAttributes can carry every attribute
// change from a to b. Names outside XML naming rules, such as "@click",
// force a replacement of the element instead.
func attrsSettable(a, b *html.Node) bool {
	for _, attr := range diffAttributes(a, b) {
		if !validName(attr.Name) {
			return false
		}
	}
	return true
}

// diffNodes assumes oldNode and newNode are the "same" node in position.
func diffNodes(oldNode, newNode *html.Node, edits *Complex) {
	if oldNode.Type == html.ElementNode {
		if attrs := diffAttributes(oldNode, newNode); len(attrs) > 0 {
			*edits = append(*edits, SetAttributes{Element: oldNode, Attributes: attrs})
		}
	}
	diffChildren(oldNode, newNode, edits)
}

func diffAttributes(oldNode, newNode *html.Node) []AttrValue {
	var attrs []AttrValue

	newKeys := mapset.NewThreadUnsafeSet[string]()
	for _, a := range newNode.Attr {
		newKeys.Add(qualifiedName(a))
	}

	oldKeys := mapset.NewThreadUnsafeSet[string]()
	for _, a := range oldNode.Attr {
		name := qualifiedName(a)
		oldKeys.Add(name)
		if !newKeys.Contains(name) {
			attrs = append(attrs, Unset(name))
			continue
		}
		if v, _ := getAttr(newNode, name); v != a.Val {
			attrs = append(attrs, Attr(name, v))
		}
	}

	for _, a := range newNode.Attr {
		if name := qualifiedName(a); !oldKeys.Contains(name) {
			attrs = append(attrs, Attr(name, a.Val))
		}
	}
	return attrs
}

// diffChildren matches children by index, as the simplest alignment: a
// change in the middle of a list rewrites everything after it.
func diffChildren(oldNode, newNode *html.Node, edits *Complex) {
	oldChildren := Children(oldNode)
	newChildren := Children(newNode)

	commonLen := min(len(oldChildren), len(newChildren))
	for i := 0; i < commonLen; i++ {
		o, n := oldChildren[i], newChildren[i]
		if sameNode(o, n) {
			diffNodes(o, n, edits)
			continue
		}
		// Remove first: a document holds one element and one doctype.
		*edits = append(*edits,
			Remove{Node: o},
			Insert{Parent: oldNode, Node: CloneNode(n), Reference: o.NextSibling},
		)
	}

	for _, o := range oldChildren[commonLen:] {
		*edits = append(*edits, Remove{Node: o})
	}
	for _, n := range newChildren[commonLen:] {
		*edits = append(*edits, Insert{Parent: oldNode, Node: CloneNode(n)})
	}
}
