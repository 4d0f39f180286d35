// Package domtree is a concrete, mutable, in-memory implementation of the
// tree.Node family (spec.md §3: "element, attribute, text, document,
// comment, PI"). The engine itself only depends on the tree package's
// interfaces; this package exists because every example in spec.md §8 (and
// the CLI, and the fragment parser) needs an actual tree to run validation
// against.
//
// Text nodes are kept normalized on mutation: AppendChild coalesces a newly
// appended Text node into a trailing Text sibling and drops empty text,
// using Unicode NFC normalization, so the "no adjacent texts, no empty
// texts" invariant spec.md §3 assumes of its host tree actually holds here.
package domtree

import (
	"golang.org/x/text/unicode/norm"

	"github.com/salvego/salve/tree"
)

// id is the node identity type; it is a process-local monotonic counter,
// never reused, so it satisfies tree.Node's "stable, comparable identity"
// contract even across mutation.
type id uint64

// Document is the root container. Call NewDocument, build an Element tree
// with NewElement/AppendChild/SetAttr, then SetRoot.
type Document struct {
	docID id
	root  *Element
	next  *id
}

// NewDocument creates an empty document with its own identity counter.
func NewDocument() *Document {
	var counter id
	d := &Document{next: &counter}
	d.docID = d.allocID()
	return d
}

func (d *Document) allocID() id {
	*d.next++
	return *d.next
}

func (d *Document) Identity() any  { return d.docID }
func (d *Document) Kind() tree.Kind { return tree.KindDocument }
func (d *Document) Parent() tree.Node { return nil }

func (d *Document) DocumentElement() tree.Element {
	if d.root == nil {
		return nil
	}
	return d.root
}

// SetRoot installs e as the document element.
func (d *Document) SetRoot(e *Element) {
	e.parent = d
	d.root = e
}

// NewElement allocates a new, parentless Element belonging to this
// document's identity space. Attach it to the tree with AppendChild or
// SetRoot.
func (d *Document) NewElement(ns, local string) *Element {
	return &Element{id: d.allocID(), ns: ns, local: local, owner: d}
}

// NewText allocates a new, parentless Text node with value already
// NFC-normalized.
func (d *Document) NewText(value string) *Text {
	return &Text{id: d.allocID(), value: norm.NFC.String(value), owner: d}
}

// NewComment allocates a new, parentless Comment node.
func (d *Document) NewComment(value string) *Comment {
	return &Comment{id: d.allocID(), value: value, owner: d}
}

// Element is a concrete tree.Element.
type Element struct {
	id       id
	owner    *Document
	parent   tree.Node
	ns       string
	local    string
	attrs    []*Attr
	children []tree.Node
}

func (e *Element) Identity() any    { return e.id }
func (e *Element) Kind() tree.Kind  { return tree.KindElement }
func (e *Element) Parent() tree.Node { return e.parent }
func (e *Element) Namespace() string { return e.ns }
func (e *Element) LocalName() string { return e.local }

func (e *Element) Attributes() []tree.Attribute {
	out := make([]tree.Attribute, len(e.attrs))
	for i, a := range e.attrs {
		out[i] = a
	}
	return out
}

func (e *Element) Children() []tree.Node {
	return append([]tree.Node(nil), e.children...)
}

// SetAttr appends or replaces an attribute, preserving first-seen order on
// replace, document order on append. Not a namespace declaration.
func (e *Element) SetAttr(ns, local, value string) *Attr {
	for _, a := range e.attrs {
		if a.ns == ns && a.local == local && !a.isNSDecl {
			a.value = value
			return a
		}
	}
	a := &Attr{id: e.owner.allocID(), parent: e, ns: ns, local: local, value: value}
	e.attrs = append(e.attrs, a)
	return a
}

// SetNamespaceDecl appends a namespace-declaration attribute binding
// prefix (empty for the default namespace) to uri.
func (e *Element) SetNamespaceDecl(prefix, uri string) *Attr {
	a := &Attr{id: e.owner.allocID(), parent: e, value: uri, isNSDecl: true, declaredPrefix: prefix}
	e.attrs = append(e.attrs, a)
	return a
}

// AppendChild appends n as e's last child. A Text child is coalesced into a
// trailing Text sibling (NFC-normalized concatenation) rather than creating
// an adjacent text run; an empty Text child is dropped entirely, per the
// normalization invariant in spec.md §3.
func (e *Element) AppendChild(n tree.Node) {
	if t, ok := n.(*Text); ok {
		e.appendText(t.value)
		return
	}
	setParent(n, e)
	e.children = append(e.children, n)
}

// AppendText is a convenience for appending literal text, applying the same
// coalescing/normalization AppendChild does for Text nodes.
func (e *Element) AppendText(value string) {
	e.appendText(norm.NFC.String(value))
}

func (e *Element) appendText(normalized string) {
	if normalized == "" {
		return
	}
	if n := len(e.children); n > 0 {
		if last, ok := e.children[n-1].(*Text); ok {
			last.value = norm.NFC.String(last.value + normalized)
			return
		}
	}
	t := &Text{id: e.owner.allocID(), value: normalized, owner: e.owner}
	t.parent = e
	e.children = append(e.children, t)
}

// InsertChildAt inserts n at position index among e's current children,
// shifting subsequent children right. Used by hosts that mutate the tree
// and then call Validator.ResetTo per spec.md's "Non-goals: mutation
// observation (the host must call resetTo after edits)".
func (e *Element) InsertChildAt(index int, n tree.Node) {
	if index < 0 || index > len(e.children) {
		index = len(e.children)
	}
	setParent(n, e)
	e.children = append(e.children, nil)
	copy(e.children[index+1:], e.children[index:])
	e.children[index] = n
}

// RemoveChildAt removes and returns the child at index, or nil if out of
// range.
func (e *Element) RemoveChildAt(index int) tree.Node {
	if index < 0 || index >= len(e.children) {
		return nil
	}
	n := e.children[index]
	e.children = append(e.children[:index:index], e.children[index+1:]...)
	return n
}

func setParent(n tree.Node, parent *Element) {
	switch v := n.(type) {
	case *Element:
		v.parent = parent
	case *Text:
		v.parent = parent
	case *Comment:
		v.parent = parent
	case *PI:
		v.parent = parent
	}
}

// Attr is a concrete tree.Attribute.
type Attr struct {
	id             id
	parent         *Element
	ns             string
	local          string
	value          string
	isNSDecl       bool
	declaredPrefix string
}

func (a *Attr) Identity() any      { return a.id }
func (a *Attr) Kind() tree.Kind    { return tree.KindAttribute }
func (a *Attr) Parent() tree.Node  { return a.parent }
func (a *Attr) Namespace() string  { return a.ns }
func (a *Attr) LocalName() string  { return a.local }
func (a *Attr) Value() string      { return a.value }
func (a *Attr) IsNamespaceDecl() bool { return a.isNSDecl }
func (a *Attr) DeclaredPrefix() string { return a.declaredPrefix }

// Text is a concrete tree.Text.
type Text struct {
	id     id
	owner  *Document
	parent tree.Node
	value  string
}

func (t *Text) Identity() any   { return t.id }
func (t *Text) Kind() tree.Kind { return tree.KindText }
func (t *Text) Parent() tree.Node { return t.parent }
func (t *Text) Value() string   { return t.value }

// Comment is a concrete comment node; the traversal state machine skips it.
type Comment struct {
	id     id
	owner  *Document
	parent tree.Node
	value  string
}

func (c *Comment) Identity() any   { return c.id }
func (c *Comment) Kind() tree.Kind { return tree.KindComment }
func (c *Comment) Parent() tree.Node { return c.parent }
func (c *Comment) Value() string   { return c.value }

// PI is a concrete processing-instruction node; the traversal state machine
// skips it.
type PI struct {
	id     id
	owner  *Document
	parent tree.Node
	Target string
	data   string
}

func (p *PI) Identity() any   { return p.id }
func (p *PI) Kind() tree.Kind { return tree.KindPI }
func (p *PI) Parent() tree.Node { return p.parent }
func (p *PI) Data() string    { return p.data }
