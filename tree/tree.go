// Package tree defines the document-tree contract the engine walks. Per
// spec.md §1 the tree model itself is an external collaborator — a DOM-like
// node/element/attribute/text structure with parent, child ordering, and
// attribute iteration. This package states that contract as Go interfaces
// plus node-identity and kind helpers; it does not implement a DOM. See
// internal/domtree for a concrete implementation used by the CLI, the
// fragment parser, and the test suite.
package tree

// Kind enumerates the node kinds the engine cares about. Comments and
// processing instructions exist in well-formed documents but are skipped by
// the traversal state machine (spec.md §3).
type Kind int

const (
	KindDocument Kind = iota
	KindElement
	KindAttribute
	KindText
	KindComment
	KindPI
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindElement:
		return "element"
	case KindAttribute:
		return "attribute"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindPI:
		return "pi"
	default:
		return "unknown"
	}
}

// ID is a stable, comparable identity for a Node, suitable as a map key.
// Implementations must guarantee that the same logical node always yields
// the same ID for the lifetime of the tree, and that no two distinct nodes
// ever collide, even across mutation.
type ID interface {
	comparable
}

// Node is the minimal contract the engine needs from any tree node.
type Node interface {
	// Identity returns this node's stable, comparable identity.
	Identity() any

	// Kind returns the node's kind.
	Kind() Kind

	// Parent returns the containing node, or nil for the document root.
	Parent() Node
}

// Element is a Node that can have attributes and element/text children.
type Element interface {
	Node

	// Namespace returns the element's expanded namespace URI (possibly empty).
	Namespace() string

	// LocalName returns the element's local name.
	LocalName() string

	// Attributes returns the element's attributes in stable document order.
	// Namespace-declaration attributes (xmlns, xmlns:prefix) are included;
	// callers that need only "real" attributes should filter with
	// Attribute.IsNamespaceDecl.
	Attributes() []Attribute

	// Children returns the element's child nodes (element, text, comment,
	// PI) in document order.
	Children() []Node
}

// Attribute is a Node representing one attribute of an Element.
type Attribute interface {
	Node

	// Namespace returns the attribute's expanded namespace URI (possibly empty).
	Namespace() string

	// LocalName returns the attribute's local name.
	LocalName() string

	// Value returns the attribute's string value.
	Value() string

	// IsNamespaceDecl reports whether this attribute is a namespace
	// declaration (xmlns="..." or xmlns:prefix="...") rather than a
	// "real" validation-significant attribute.
	IsNamespaceDecl() bool

	// DeclaredPrefix returns the prefix being bound, for a namespace
	// declaration attribute ("" for the default namespace declaration).
	// Meaningless when IsNamespaceDecl is false.
	DeclaredPrefix() string
}

// Text is a Node holding character data. Per spec.md §3, text nodes in a
// well-formed tree are guaranteed normalized: no two adjacent Text siblings,
// no empty Text nodes.
type Text interface {
	Node

	// Value returns the text content.
	Value() string
}

// Document is the root container of a tree; DocumentElement is the single
// element child that traversal begins from.
type Document interface {
	Node

	// DocumentElement returns the document's single root element, or nil
	// if the document has none yet.
	DocumentElement() Element
}

// IsAncestorOf reports whether a is a strict ancestor of b (walking b's
// Parent chain).
func IsAncestorOf(a, b Node) bool {
	for n := b.Parent(); n != nil; n = n.Parent() {
		if SameNode(n, a) {
			return true
		}
	}
	return false
}

// SameNode reports whether a and b are the same node by identity.
func SameNode(a, b Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Identity() == b.Identity()
}

// IsOrIsAncestorOf reports whether a equals b or is a strict ancestor of b.
func IsOrIsAncestorOf(a, b Node) bool {
	return SameNode(a, b) || IsAncestorOf(a, b)
}
