package xedit

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// ParseHTML parses a string into an HTML node tree.
func ParseHTML(content string) (*html.Node, error) {
	return html.Parse(strings.NewReader(content))
}

// ParseFragment parses content as children of context and returns the
// resulting nodes detached from any parent.
func ParseFragment(content string, context *html.Node) ([]*html.Node, error) {
	// html.ParseFragment rejects contexts whose atom does not match their tag.
	if context == nil || context.Type != html.ElementNode || context.DataAtom != atom.Lookup([]byte(context.Data)) {
		context = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	return html.ParseFragment(strings.NewReader(content), context)
}

// RenderNode converts a node tree back to a string.
func RenderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GetNode traverses the tree using the provided path to find a specific node.
func GetNode(root *html.Node, path NodePath) (*html.Node, error) {
	current := root
	for i, index := range path {
		child := getChildAtIndex(current, index)
		if child == nil {
			return nil, fmt.Errorf("node not found at path %v (failed at index %d, step %d)", path, index, i)
		}
		current = child
	}
	return current, nil
}

// getChildAtIndex finds the Nth child of a node.
// Note: html.Node's children are a linked list (FirstChild, NextSibling).
func getChildAtIndex(parent *html.Node, index int) *html.Node {
	count := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if count == index {
			return c
		}
		count++
	}
	return nil
}

// GetPath finds the path from root to the target node.
func GetPath(root, target *html.Node) (NodePath, error) {
	var path NodePath

	// We build the path backwards from target to root
	current := target
	for current != root {
		parent := current.Parent
		if parent == nil {
			return nil, errors.New("target node is not a descendant of root")
		}

		index := getChildIndex(parent, current)
		if index == -1 {
			return nil, errors.New("integrity error: child not found in parent's list")
		}

		path = append(NodePath{index}, path...)
		current = parent
	}
	return path, nil
}

// getChildIndex returns the index of child within parent.
func getChildIndex(parent, child *html.Node) int {
	count := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == child {
			return count
		}
		count++
	}
	return -1
}

// Contains reports whether n is ancestor or one of its descendants.
func Contains(ancestor, n *html.Node) bool {
	if ancestor == nil {
		return false
	}
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// Children returns the children of n in order.
func Children(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return children
}

// CloneNode returns a deep copy of n that is detached from any tree.
func CloneNode(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(CloneNode(c))
	}
	return clone
}

// replaceText removes every child of n and, when text is non-empty, appends
// a single text node carrying it.
func replaceText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}

// qualifiedName returns the attribute name as it would be serialized.
func qualifiedName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Namespace + ":" + a.Key
	}
	return a.Key
}

// splitName splits a qualified name into prefix and local name.
func splitName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if qualifiedName(a) == name {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, name, val string) {
	for i, a := range n.Attr {
		if qualifiedName(a) == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if qualifiedName(a) == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// attrName resolves the namespace URI and local name of an attribute carried
// by n. A prefix is split off only when it is bound in scope; otherwise the
// whole qualified name is the local name of a null-namespace attribute.
func attrName(n *html.Node, a html.Attribute) (ns, local string) {
	name := qualifiedName(a)
	prefix, l := splitName(name)
	if prefix == "" {
		if name == "xmlns" {
			return XMLNSNamespace, name
		}
		return "", name
	}
	if ns = LookupNamespaceURI(n, prefix); ns == "" {
		return "", name
	}
	return ns, l
}

// attrNamespace resolves the namespace URI of an attribute carried by n.
func attrNamespace(n *html.Node, a html.Attribute) string {
	ns, _ := attrName(n, a)
	return ns
}

// findAttrNS returns the index of the attribute with the given namespace URI
// and local name, or -1.
func findAttrNS(n *html.Node, ns, local string) int {
	for i, a := range n.Attr {
		if an, al := attrName(n, a); an == ns && al == local {
			return i
		}
	}
	return -1
}

func getAttrNS(n *html.Node, ns, local string) (string, bool) {
	if i := findAttrNS(n, ns, local); i >= 0 {
		return n.Attr[i].Val, true
	}
	return "", false
}

// setAttrNS sets the attribute (ns, local) to val. An existing attribute keeps
// its prefix; a new one is created as prefix:local.
func setAttrNS(n *html.Node, ns, prefix, local, val string) {
	if i := findAttrNS(n, ns, local); i >= 0 {
		n.Attr[i].Val = val
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Namespace: prefix, Key: local, Val: val})
}

func removeAttrNS(n *html.Node, ns, local string) {
	if i := findAttrNS(n, ns, local); i >= 0 {
		n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
	}
}

// declaredNamespace returns the URI that n itself binds prefix to through an
// xmlns:prefix attribute.
func declaredNamespace(n *html.Node, prefix string) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	return getAttr(n, "xmlns:"+prefix)
}

// LookupNamespaceURI returns the namespace URI bound to prefix in scope of n,
// or "" when the prefix is unbound.
func LookupNamespaceURI(n *html.Node, prefix string) string {
	switch prefix {
	case "xml":
		return XMLNamespace
	case "xmlns":
		return XMLNSNamespace
	}
	for ; n != nil; n = n.Parent {
		if ns, ok := declaredNamespace(n, prefix); ok {
			return ns
		}
	}
	return ""
}

// LookupPrefix returns a prefix bound to ns in scope of n, or "" when there is
// none. Declarations closer to n shadow those of its ancestors.
func LookupPrefix(n *html.Node, ns string) string {
	switch ns {
	case "":
		return ""
	case XMLNamespace:
		return "xml"
	case XMLNSNamespace:
		return "xmlns"
	}
	for e := n; e != nil; e = e.Parent {
		if e.Type != html.ElementNode {
			continue
		}
		for _, a := range e.Attr {
			prefix, local := splitName(qualifiedName(a))
			if prefix == "xmlns" && a.Val == ns && LookupNamespaceURI(n, local) == ns {
				return local
			}
		}
	}
	return ""
}
