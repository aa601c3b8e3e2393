package xedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestApplyInsertIntoEmpty(t *testing.T) {
	doc, div := parse(t, `<div></div>`, "div")
	before := render(t, doc)
	x := element("span")

	undo := Apply(Insert{Parent: div, Node: x})

	assert.Same(t, x, div.FirstChild)
	assert.Equal(t, Remove{Node: x}, undo)

	Apply(undo)
	assert.Nil(t, div.FirstChild)
	assert.Nil(t, x.Parent)
	assert.Equal(t, before, render(t, doc))
}

func TestApplyInsertMove(t *testing.T) {
	doc, ul := parse(t, `<ul><li id="1"></li><li id="2"></li><li id="3"></li></ul>`, "ul")
	before := render(t, doc)
	children := Children(ul)
	first, third := children[0], children[2]

	undo := Apply(Insert{Parent: ul, Node: third, Reference: first})

	assert.Equal(t, []*html.Node{third, first, children[1]}, Children(ul))
	assert.Equal(t, Insert{Parent: ul, Node: third}, undo)

	Apply(undo)
	assert.Equal(t, before, render(t, doc))
}

func TestApplyInsertStaleReference(t *testing.T) {
	_, body := parse(t, `<div id="a"><p></p></div><div id="b"><i></i></div>`, "body")
	a, b := body.FirstChild, body.LastChild
	stale := b.FirstChild
	x := element("span")

	undo := Apply(Insert{Parent: a, Node: x, Reference: stale})

	assert.Same(t, x, a.LastChild, "stale reference falls back to append")
	assert.Same(t, stale, b.FirstChild)
	assert.Equal(t, Remove{Node: x}, undo)
}

func TestApplyInsertReferenceIsNode(t *testing.T) {
	doc, ul := parse(t, `<ul><li id="1"></li><li id="2"></li></ul>`, "ul")
	before := render(t, doc)
	first := ul.FirstChild

	undo := Apply(Insert{Parent: ul, Node: first, Reference: first})

	assert.Same(t, first, ul.FirstChild)
	Apply(undo)
	assert.Equal(t, before, render(t, doc))
}

func TestApplyInsertFailures(t *testing.T) {
	doc, div := parse(t, `<div><p><i></i></p></div>`, "div")
	p := div.FirstChild
	grandchild := p.FirstChild
	text := &html.Node{Type: html.TextNode, Data: "x"}

	tests := []struct {
		name string
		edit Insert
		err  error
	}{
		{"reference is a grandchild", Insert{Parent: div, Node: element("span"), Reference: grandchild}, ErrNotChild},
		{"node contains parent", Insert{Parent: p, Node: div}, ErrHierarchy},
		{"node is parent", Insert{Parent: div, Node: div}, ErrHierarchy},
		{"parent is text", Insert{Parent: text, Node: element("span")}, ErrHierarchy},
		{"node is a document", Insert{Parent: div, Node: &html.Node{Type: html.DocumentNode}}, ErrHierarchy},
		{"text under document", Insert{Parent: doc, Node: &html.Node{Type: html.TextNode, Data: "x"}}, ErrHierarchy},
		{"doctype under element", Insert{Parent: div, Node: doctype()}, ErrHierarchy},
		{"second element under document", Insert{Parent: doc, Node: element("html")}, ErrHierarchy},
		{"doctype after document element", Insert{Parent: doc, Node: doctype()}, ErrHierarchy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := render(t, doc)

			undo, outcomes := ApplyTraced(tt.edit)

			assert.Equal(t, Complex{}, undo)
			require.Len(t, outcomes, 1)
			assert.ErrorIs(t, outcomes[0].Err, tt.err)
			assert.True(t, outcomes[0].Skipped())
			assert.Equal(t, before, render(t, doc))
		})
	}
}

func TestApplyInsertDoctype(t *testing.T) {
	doc, root := parse(t, `<p></p>`, "html")
	before := render(t, doc)
	dt := doctype()

	undo, outcomes := ApplyTraced(Insert{Parent: doc, Node: dt, Reference: root})

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	assert.Same(t, dt, doc.FirstChild)

	_, outcomes = ApplyTraced(Insert{Parent: doc, Node: doctype(), Reference: dt})
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, ErrHierarchy, "a document has one doctype")

	_, outcomes = ApplyTraced(Insert{Parent: doc, Node: root, Reference: dt})
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, ErrHierarchy, "the document element follows the doctype")

	Apply(undo)
	assert.Equal(t, before, render(t, doc))
}

func TestApplyRemove(t *testing.T) {
	doc, ul := parse(t, `<ul><li id="1"></li><li id="2"></li></ul>`, "ul")
	before := render(t, doc)
	first, second := ul.FirstChild, ul.LastChild

	undo := Apply(Remove{Node: first})

	assert.Nil(t, first.Parent)
	assert.Same(t, second, ul.FirstChild)
	assert.Equal(t, Insert{Parent: ul, Node: first, Reference: second}, undo)

	Apply(undo)
	assert.Equal(t, before, render(t, doc))
}

func TestApplyRemoveDetached(t *testing.T) {
	x := element("span")

	undo, outcomes := ApplyTraced(Remove{Node: x})

	assert.Equal(t, Complex{}, undo)
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
}

func TestApplySetTextContent(t *testing.T) {
	doc, div := parse(t, `<div><i></i><b></b></div>`, "div")
	before := render(t, doc)
	i, b := div.FirstChild, div.LastChild

	undo := Apply(SetTextContent{Element: div, TextContent: "X"})

	require.NotNil(t, div.FirstChild)
	assert.Same(t, div.FirstChild, div.LastChild)
	assert.Equal(t, html.TextNode, div.FirstChild.Type)
	assert.Equal(t, "X", div.FirstChild.Data)
	assert.Equal(t, Complex{
		SetTextContent{Element: div},
		Insert{Parent: div, Node: i},
		Insert{Parent: div, Node: b},
	}, undo)

	Apply(undo)
	assert.Equal(t, []*html.Node{i, b}, Children(div))
	assert.Equal(t, before, render(t, doc))
}

func TestApplySetTextContentEmpty(t *testing.T) {
	_, p := parse(t, `<p>Hello</p>`, "p")

	Apply(SetTextContent{Element: p})

	assert.Nil(t, p.FirstChild)
}

func TestApplyComplexReversesUndo(t *testing.T) {
	_, div := parse(t, `<div></div>`, "div")
	x, y, z := element("i"), element("b"), element("u")

	undo := Apply(Complex{
		Insert{Parent: div, Node: x},
		Insert{Parent: div, Node: y},
		Insert{Parent: div, Node: z},
	})

	assert.Equal(t, []*html.Node{x, y, z}, Children(div))
	assert.Equal(t, Complex{Remove{Node: z}, Remove{Node: y}, Remove{Node: x}}, undo)

	Apply(undo)
	assert.Nil(t, div.FirstChild)
}

func TestApplyComplexPartial(t *testing.T) {
	doc, div := parse(t, `<div><p></p></div>`, "div")
	before := render(t, doc)
	p := div.FirstChild
	x := element("span")

	undo, outcomes := ApplyTraced(Complex{
		Insert{Parent: div, Node: x},
		Insert{Parent: p, Node: div}, // cycle, skipped
		SetTextContent{Element: p, TextContent: "kept"},
	})

	require.Len(t, outcomes, 3)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[1].Err, ErrHierarchy)
	assert.NoError(t, outcomes[2].Err)
	assert.Same(t, x, div.LastChild)
	assert.Equal(t, "kept", p.FirstChild.Data)

	c, ok := undo.(Complex)
	require.True(t, ok)
	require.Len(t, c, 3)
	assert.Equal(t, Complex{}, c[1])

	Apply(undo)
	assert.Equal(t, before, render(t, doc))
}

func TestApplyInvalid(t *testing.T) {
	doc, _ := parse(t, `<div></div>`, "div")
	before := render(t, doc)

	for _, e := range []Edit{nil, Insert{Node: element("i")}, Remove{}, SetAttributes{}} {
		undo, outcomes := ApplyTraced(e)

		assert.Equal(t, Complex{}, undo)
		require.Len(t, outcomes, 1)
		assert.ErrorIs(t, outcomes[0].Err, ErrInvalidEdit)
	}
	assert.Equal(t, before, render(t, doc))
}

func TestApplyUndoRestoresTree(t *testing.T) {
	tests := []struct {
		name string
		html string
		edit func(doc *html.Node) Edit
	}{
		{
			name: "move between parents",
			html: `<div id="a"><p>1</p><p>2</p></div><div id="b"><p>3</p></div>`,
			edit: func(doc *html.Node) Edit {
				body := find(doc, "body")
				return Insert{Parent: body.LastChild, Node: body.FirstChild.FirstChild, Reference: body.LastChild.FirstChild}
			},
		},
		{
			name: "replace text with nested markup",
			html: `<div>Hello <b>bold</b> world</div>`,
			edit: func(doc *html.Node) Edit {
				return SetTextContent{Element: find(doc, "div"), TextContent: "plain"}
			},
		},
		{
			name: "attributes plain and namespaced",
			html: `<div id="x" class="c" xmlns:p="urn:p" p:a="1"></div>`,
			edit: func(doc *html.Node) Edit {
				return SetAttributes{
					Element:    find(doc, "div"),
					Attributes: []AttrValue{Attr("id", "y"), Unset("class"), Attr("title", "t")},
					AttributesNS: []NSAttributes{
						{Namespace: "urn:p", Attributes: []AttrValue{Unset("a"), Attr("b", "2")}},
						{Namespace: "urn:q", Attributes: []AttrValue{Attr("c", "3")}},
					},
				}
			},
		},
		{
			name: "batch depending on earlier members",
			html: `<ul><li>A</li><li>B</li></ul>`,
			edit: func(doc *html.Node) Edit {
				ul := find(doc, "ul")
				a, b := ul.FirstChild, ul.LastChild
				return Complex{
					Remove{Node: a},
					Insert{Parent: ul, Node: a, Reference: a}, // stale, appends
					SetTextContent{Element: b, TextContent: "C"},
					Remove{Node: b},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseHTML(tt.html)
			require.NoError(t, err)
			before := render(t, doc)

			undo := Apply(tt.edit(doc))
			require.NotEqual(t, before, render(t, doc))

			Apply(undo)
			assert.Equal(t, before, render(t, doc))
		})
	}
}
