package xedit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/net/html"
)

// NodeRef addresses a node in a Record. Nodes attached under the document
// root travel as a path; detached nodes travel as their markup.
type NodeRef struct {
	Path     NodePath `json:"path"`
	NodeData string   `json:"node_data,omitempty"`
}

// Record is the serializable form of an Edit. A Complex edit is a Record
// with Type KindComplex and its members in Edits, and marshals to a JSON
// array.
type Record struct {
	Type         Kind
	Parent       *NodeRef
	Node         *NodeRef
	Reference    *NodeRef
	HasReference bool // Reference is present, possibly null
	Element      *NodeRef
	TextContent  *string
	Attributes   []AttrValue
	AttributesNS []NSAttributes
	Edits        []Record
}

type wireRecord struct {
	Type         Kind            `json:"type,omitempty"`
	Parent       *NodeRef        `json:"parent,omitempty"`
	Node         *NodeRef        `json:"node,omitempty"`
	Reference    json.RawMessage `json:"reference,omitempty"`
	Element      *NodeRef        `json:"element,omitempty"`
	TextContent  *string         `json:"textContent,omitempty"`
	Attributes   []AttrValue     `json:"attributes,omitempty"`
	AttributesNS []NSAttributes  `json:"attributesNS,omitempty"`
}

var null = json.RawMessage("null")

func (r Record) MarshalJSON() ([]byte, error) {
	if r.Classify() == KindComplex {
		edits := r.Edits
		if edits == nil {
			edits = []Record{}
		}
		return json.Marshal(edits)
	}
	w := wireRecord{
		Type:         r.Type,
		Parent:       r.Parent,
		Node:         r.Node,
		Element:      r.Element,
		TextContent:  r.TextContent,
		Attributes:   r.Attributes,
		AttributesNS: r.AttributesNS,
	}
	if r.Reference != nil {
		ref, err := json.Marshal(r.Reference)
		if err != nil {
			return nil, err
		}
		w.Reference = ref
	} else if r.HasReference {
		w.Reference = null
	}
	return json.Marshal(w)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var edits []Record
		if err := json.Unmarshal(trimmed, &edits); err != nil {
			return err
		}
		if edits == nil {
			edits = []Record{}
		}
		*r = Record{Type: KindComplex, Edits: edits}
		return nil
	}

	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		Type:         w.Type,
		Parent:       w.Parent,
		Node:         w.Node,
		Element:      w.Element,
		TextContent:  w.TextContent,
		Attributes:   w.Attributes,
		AttributesNS: w.AttributesNS,
	}
	if w.Reference != nil {
		r.HasReference = true
		if !bytes.Equal(bytes.TrimSpace(w.Reference), null) {
			r.Reference = new(NodeRef)
			if err := json.Unmarshal(w.Reference, r.Reference); err != nil {
				return fmt.Errorf("reference: %w", err)
			}
		}
	}
	return nil
}

// Classify returns the record's Type, or infers it from which fields are
// present when Type is empty. Inference tries SetAttributes, SetTextContent,
// Insert, Remove and Complex in that order; the first match wins. A record
// with a node but neither parent nor type is therefore a Remove.
func (r Record) Classify() Kind {
	if r.Type != "" {
		return r.Type
	}
	switch {
	case r.Element != nil && r.Attributes != nil && r.AttributesNS != nil:
		return KindSetAttributes
	case r.Element != nil && r.TextContent != nil:
		return KindSetTextContent
	case r.Parent != nil && r.Node != nil && r.HasReference:
		return KindInsert
	case r.Parent == nil && r.Node != nil:
		return KindRemove
	case r.Edits != nil:
		return KindComplex
	}
	return KindInvalid
}

// Encode converts e into a Record addressing nodes relative to root.
func Encode(root *html.Node, e Edit) (Record, error) {
	if c, ok := e.(Complex); ok {
		rec := Record{Type: KindComplex, Edits: make([]Record, 0, len(c))}
		for i, sub := range c {
			r, err := Encode(root, sub)
			if err != nil {
				return Record{}, fmt.Errorf("edit %d: %w", i, err)
			}
			rec.Edits = append(rec.Edits, r)
		}
		return rec, nil
	}

	var err error
	ref := func(n *html.Node) *NodeRef {
		if err != nil || n == nil {
			return nil
		}
		var r *NodeRef
		r, err = encodeNode(root, n)
		return r
	}

	var rec Record
	switch v := normalize(e).(type) {
	case Insert:
		rec = Record{Type: KindInsert, Parent: ref(v.Parent), Node: ref(v.Node), Reference: ref(v.Reference), HasReference: true}
	case Remove:
		rec = Record{Type: KindRemove, Node: ref(v.Node)}
	case SetTextContent:
		text := v.TextContent
		rec = Record{Type: KindSetTextContent, Element: ref(v.Element), TextContent: &text}
	case SetAttributes:
		rec = Record{
			Type:         KindSetAttributes,
			Element:      ref(v.Element),
			Attributes:   v.Attributes,
			AttributesNS: v.AttributesNS,
		}
	default:
		return Record{}, fmt.Errorf("%w: %T", ErrInvalidEdit, e)
	}
	return rec, err
}

func encodeNode(root, n *html.Node) (*NodeRef, error) {
	if Contains(root, n) {
		path, err := GetPath(root, n)
		if err != nil {
			return nil, err
		}
		return &NodeRef{Path: path}, nil
	}
	data, err := RenderNode(n)
	if err != nil {
		return nil, err
	}
	if data == "" {
		return nil, errors.New("detached node renders to nothing")
	}
	return &NodeRef{NodeData: data}, nil
}

// Decode resolves r against root. Every path of a Complex record is resolved
// before any member is applied, so members may refer to nodes that earlier
// members move. Nodes carried as markup are parsed into new detached nodes.
func Decode(root *html.Node, r Record) (Edit, error) {
	var err error
	node := func(ref *NodeRef, context *html.Node) *html.Node {
		if err != nil || ref == nil {
			return nil
		}
		var n *html.Node
		n, err = decodeNode(root, ref, context)
		return n
	}

	switch r.Classify() {
	case KindComplex:
		c := make(Complex, 0, len(r.Edits))
		for i, sub := range r.Edits {
			e, err := Decode(root, sub)
			if err != nil {
				return nil, fmt.Errorf("edit %d: %w", i, err)
			}
			c = append(c, e)
		}
		return c, nil
	case KindInsert:
		parent := node(r.Parent, nil)
		e := Insert{Parent: parent, Node: node(r.Node, parent), Reference: node(r.Reference, parent)}
		if err == nil && (e.Parent == nil || e.Node == nil) {
			err = fmt.Errorf("%w: insert needs parent and node", ErrInvalidEdit)
		}
		return decoded(e, err)
	case KindRemove:
		e := Remove{Node: node(r.Node, nil)}
		if err == nil && e.Node == nil {
			err = fmt.Errorf("%w: remove needs node", ErrInvalidEdit)
		}
		return decoded(e, err)
	case KindSetTextContent:
		e := SetTextContent{Element: node(r.Element, nil)}
		if r.TextContent != nil {
			e.TextContent = *r.TextContent
		}
		if err == nil && e.Element == nil {
			err = fmt.Errorf("%w: text content needs element", ErrInvalidEdit)
		}
		return decoded(e, err)
	case KindSetAttributes:
		e := SetAttributes{Element: node(r.Element, nil), Attributes: r.Attributes, AttributesNS: r.AttributesNS}
		if err == nil && e.Element == nil {
			err = fmt.Errorf("%w: attributes need element", ErrInvalidEdit)
		}
		return decoded(e, err)
	}
	return nil, fmt.Errorf("%w: unknown record type %q", ErrInvalidEdit, r.Type)
}

func decoded(e Edit, err error) (Edit, error) {
	if err != nil {
		return nil, err
	}
	return e, nil
}

func decodeNode(root *html.Node, ref *NodeRef, context *html.Node) (*html.Node, error) {
	if ref.NodeData == "" {
		return GetNode(root, ref.Path)
	}
	nodes, err := ParseFragment(ref.NodeData, context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node data: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("node data %q holds no node", ref.NodeData)
	}
	return nodes[0], nil
}
