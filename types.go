// Package xedit applies undoable edits to HTML and XML node trees.
package xedit

import "golang.org/x/net/html"

// NodePath represents the traversal steps from the root to a target node.
// Example: [0, 1, 3] means root -> child[0] -> child[1] -> child[3]
type NodePath []int

// Kind names the variant of an Edit.
type Kind string

const (
	KindInsert         Kind = "INSERT"           // Place a node before a reference child
	KindRemove         Kind = "REMOVE"           // Detach a node from its parent
	KindSetTextContent Kind = "SET_TEXT_CONTENT" // Replace all children with text
	KindSetAttributes  Kind = "SET_ATTRIBUTES"   // Set or remove plain and namespaced attributes
	KindComplex        Kind = "COMPLEX"          // Ordered batch of edits
	KindInvalid        Kind = "INVALID"          // Not applicable: missing a required node
)

// Edit is an intent to change a tree. The set of implementations is closed:
// Insert, Remove, SetTextContent, SetAttributes and Complex.
type Edit interface {
	Kind() Kind
}

// Insert is the intent to call parent.InsertBefore(node, reference).
// A nil Reference appends node to the end of parent's children.
type Insert struct {
	Parent    *html.Node
	Node      *html.Node
	Reference *html.Node
}

// Remove is the intent to detach Node from its parent.
type Remove struct {
	Node *html.Node
}

// SetTextContent is the intent to replace all children of Element with a
// single text node. An empty TextContent leaves Element without children.
type SetTextContent struct {
	Element     *html.Node
	TextContent string
}

// AttrValue is one attribute assignment. A nil Value removes the attribute,
// and in an undo edit means the attribute was absent.
type AttrValue struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// NSAttributes groups attribute assignments under one namespace URI.
// Names may be local ("attr") or prefixed ("p:attr").
type NSAttributes struct {
	Namespace  string      `json:"namespace"`
	Attributes []AttrValue `json:"attributes"`
}

// SetAttributes is the intent to set or remove (if the value is nil)
// Attributes and AttributesNS on Element.
type SetAttributes struct {
	Element      *html.Node
	Attributes   []AttrValue
	AttributesNS []NSAttributes
}

// Complex is an ordered batch of edits. It is undone last edit first.
type Complex []Edit

func (Insert) Kind() Kind         { return KindInsert }
func (Remove) Kind() Kind         { return KindRemove }
func (SetTextContent) Kind() Kind { return KindSetTextContent }
func (SetAttributes) Kind() Kind  { return KindSetAttributes }
func (Complex) Kind() Kind        { return KindComplex }

// Val returns a pointer to s, for building AttrValue literals.
func Val(s string) *string {
	return &s
}

// Attr builds an AttrValue that sets name to value.
func Attr(name, value string) AttrValue {
	return AttrValue{Name: name, Value: Val(value)}
}

// Unset builds an AttrValue that removes name.
func Unset(name string) AttrValue {
	return AttrValue{Name: name}
}

// Classify reports the variant of e. Leaf edits missing a required node and
// nil edits classify as KindInvalid.
func Classify(e Edit) Kind {
	switch e := e.(type) {
	case SetAttributes:
		if e.Element != nil {
			return KindSetAttributes
		}
	case *SetAttributes:
		if e != nil {
			return Classify(*e)
		}
	case SetTextContent:
		if e.Element != nil {
			return KindSetTextContent
		}
	case *SetTextContent:
		if e != nil {
			return Classify(*e)
		}
	case Insert:
		if e.Parent != nil && e.Node != nil {
			return KindInsert
		}
	case *Insert:
		if e != nil {
			return Classify(*e)
		}
	case Remove:
		if e.Node != nil {
			return KindRemove
		}
	case *Remove:
		if e != nil {
			return Classify(*e)
		}
	case Complex:
		return KindComplex
	}
	return KindInvalid
}

// IsValid reports whether e can be applied. A Complex edit is valid only if
// every member is.
func IsValid(e Edit) bool {
	if c, ok := e.(Complex); ok {
		for _, sub := range c {
			if !IsValid(sub) {
				return false
			}
		}
		return true
	}
	return Classify(e) != KindInvalid
}

// IsEmpty reports whether e is a batch that does nothing.
func IsEmpty(e Edit) bool {
	c, ok := e.(Complex)
	if !ok {
		return false
	}
	for _, sub := range c {
		if !IsEmpty(sub) {
			return false
		}
	}
	return true
}
