package xedit

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"
)

var (
	ErrInvalidEdit = errors.New("invalid edit")
	ErrHierarchy   = errors.New("hierarchy request error")
	ErrNotChild    = errors.New("reference is not a child of parent")
	ErrInvalidName = errors.New("invalid attribute name")
	ErrNamespace   = errors.New("namespace error")
)

// Outcome records how a single leaf edit fared. Err is non-nil when the edit,
// or part of it, was skipped; Undo then only reverses what was applied.
type Outcome struct {
	Edit Edit
	Undo Edit
	Err  error
}

// Skipped reports whether anything in the edit was left unapplied.
func (o Outcome) Skipped() bool {
	return o.Err != nil
}

// Apply performs e on the tree its nodes belong to and returns the edit that
// undoes it. Failing edits are skipped and contribute an empty batch to the
// returned undo edit; nothing is rolled back.
func Apply(e Edit) Edit {
	return apply(e, nil)
}

// ApplyTraced is Apply, additionally reporting one Outcome per leaf edit in
// the order they were applied.
func ApplyTraced(e Edit) (Edit, []Outcome) {
	var outcomes []Outcome
	undo := apply(e, func(o Outcome) {
		outcomes = append(outcomes, o)
	})
	return undo, outcomes
}

func apply(e Edit, report func(Outcome)) Edit {
	if c, ok := e.(Complex); ok {
		undo := make(Complex, len(c))
		for i, sub := range c {
			undo[len(c)-1-i] = apply(sub, report)
		}
		return undo
	}

	var (
		undo Edit
		err  error
	)
	switch leaf := normalize(e).(type) {
	case Insert:
		undo, err = applyInsert(leaf)
	case Remove:
		undo, err = applyRemove(leaf)
	case SetTextContent:
		undo, err = applySetTextContent(leaf)
	case SetAttributes:
		undo, err = applySetAttributes(leaf)
	default:
		undo, err = Complex{}, fmt.Errorf("%w: %T", ErrInvalidEdit, e)
	}
	if report != nil {
		report(Outcome{Edit: e, Undo: undo, Err: err})
	}
	return undo
}

// normalize dereferences pointer variants and maps edits missing their
// required nodes to nil.
func normalize(e Edit) Edit {
	if Classify(e) == KindInvalid {
		return nil
	}
	switch e := e.(type) {
	case *Insert:
		return *e
	case *Remove:
		return *e
	case *SetTextContent:
		return *e
	case *SetAttributes:
		return *e
	}
	return e
}

func applyInsert(e Insert) (Edit, error) {
	parent, node, ref := e.Parent, e.Node, e.Reference

	// References may have been captured before earlier edits of the same
	// batch moved them out of parent.
	if ref != nil && !Contains(parent, ref) {
		ref = nil
	}
	if ref == node {
		ref = node.NextSibling
	}
	if err := checkInsert(parent, node, ref); err != nil {
		return Complex{}, err
	}

	prevParent, prevNext := node.Parent, node.NextSibling
	if prevParent != nil {
		prevParent.RemoveChild(node)
	}
	parent.InsertBefore(node, ref)

	if prevParent != nil {
		return Insert{Parent: prevParent, Node: node, Reference: prevNext}, nil
	}
	return Remove{Node: node}, nil
}

func checkInsert(parent, node, ref *html.Node) error {
	switch {
	case parent.Type != html.ElementNode && parent.Type != html.DocumentNode:
		return fmt.Errorf("%w: parent of type %d cannot have children", ErrHierarchy, parent.Type)
	case node.Type == html.DocumentNode:
		return fmt.Errorf("%w: a document cannot be inserted", ErrHierarchy)
	case parent.Type == html.DocumentNode && node.Type == html.TextNode:
		return fmt.Errorf("%w: text cannot be a child of a document", ErrHierarchy)
	case Contains(node, parent):
		return fmt.Errorf("%w: node contains parent", ErrHierarchy)
	case node.Type == html.DoctypeNode && parent.Type != html.DocumentNode:
		return fmt.Errorf("%w: a doctype must be a child of a document", ErrHierarchy)
	case ref != nil && ref.Parent != parent:
		return ErrNotChild
	case parent.Type == html.DocumentNode:
		return checkDocumentChild(parent, node, ref)
	}
	return nil
}

// checkDocumentChild enforces that a document holds at most one element and
// one doctype, with the doctype first.
func checkDocumentChild(doc, node, ref *html.Node) error {
	if node.Type != html.ElementNode && node.Type != html.DoctypeNode {
		return nil
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c != node && c.Type == node.Type {
			return fmt.Errorf("%w: a document has one %s child at most", ErrHierarchy, nodeKind(node))
		}
	}
	if node.Type == html.DoctypeNode {
		for c := doc.FirstChild; c != nil && c != ref; c = c.NextSibling {
			if c.Type == html.ElementNode && c != node {
				return fmt.Errorf("%w: a doctype cannot follow the document element", ErrHierarchy)
			}
		}
		return nil
	}
	for c := ref; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			return fmt.Errorf("%w: the document element cannot precede the doctype", ErrHierarchy)
		}
	}
	return nil
}

func nodeKind(n *html.Node) string {
	if n.Type == html.DoctypeNode {
		return "doctype"
	}
	return "element"
}

func applyRemove(e Remove) (Edit, error) {
	node := e.Node
	parent, next := node.Parent, node.NextSibling
	if parent == nil {
		return Complex{}, nil
	}
	parent.RemoveChild(node)
	return Insert{Parent: parent, Node: node, Reference: next}, nil
}

func applySetTextContent(e SetTextContent) (Edit, error) {
	el := e.Element
	if el.Type != html.ElementNode {
		return Complex{}, fmt.Errorf("%w: text content of node type %d", ErrHierarchy, el.Type)
	}

	children := Children(el)
	replaceText(el, e.TextContent)

	undo := make(Complex, 0, len(children)+1)
	undo = append(undo, SetTextContent{Element: el, TextContent: ""})
	for _, c := range children {
		undo = append(undo, Insert{Parent: el, Node: c})
	}
	return undo, nil
}
