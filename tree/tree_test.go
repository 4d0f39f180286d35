package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeNode is a minimal Node for exercising the identity/ancestry helpers
// without pulling in a concrete tree implementation.
type fakeNode struct {
	id     int
	parent *fakeNode
}

func (n *fakeNode) Identity() any { return n.id }
func (n *fakeNode) Kind() Kind    { return KindElement }
func (n *fakeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindDocument:  "document",
		KindElement:   "element",
		KindAttribute: "attribute",
		KindText:      "text",
		KindComment:   "comment",
		KindPI:        "pi",
		Kind(99):      "unknown",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}

func TestSameNode(t *testing.T) {
	a := &fakeNode{id: 1}
	b := &fakeNode{id: 1}
	c := &fakeNode{id: 2}

	assert.True(t, SameNode(a, a))
	assert.True(t, SameNode(a, b), "equal Identity() values should count as the same node")
	assert.False(t, SameNode(a, c))
}

func TestSameNodeNilHandling(t *testing.T) {
	assert.True(t, SameNode(nil, nil))
	assert.False(t, SameNode(nil, &fakeNode{id: 1}))
	assert.False(t, SameNode(&fakeNode{id: 1}, nil))
}

func TestIsAncestorOf(t *testing.T) {
	root := &fakeNode{id: 1}
	child := &fakeNode{id: 2, parent: root}
	grandchild := &fakeNode{id: 3, parent: child}

	assert.True(t, IsAncestorOf(root, grandchild))
	assert.True(t, IsAncestorOf(child, grandchild))
	assert.False(t, IsAncestorOf(grandchild, root))
	assert.False(t, IsAncestorOf(root, root), "a node is not its own strict ancestor")
}

func TestIsOrIsAncestorOf(t *testing.T) {
	root := &fakeNode{id: 1}
	child := &fakeNode{id: 2, parent: root}

	assert.True(t, IsOrIsAncestorOf(root, child))
	assert.True(t, IsOrIsAncestorOf(root, root))
	assert.False(t, IsOrIsAncestorOf(child, root))
}
