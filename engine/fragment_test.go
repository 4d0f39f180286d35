package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvego/salve/tree"
)

func TestParseFragmentSimpleElement(t *testing.T) {
	n, err := ParseFragment(`<a><b/></a>`)
	require.NoError(t, err)

	elem, ok := n.(tree.Element)
	require.True(t, ok)
	assert.Equal(t, "a", elem.LocalName())
	require.Len(t, elem.Children(), 1)

	child, ok := elem.Children()[0].(tree.Element)
	require.True(t, ok)
	assert.Equal(t, "b", child.LocalName())
}

func TestParseFragmentAttributesAndNamespaceDecl(t *testing.T) {
	n, err := ParseFragment(`<a xmlns="urn:example" id="1"><b/></a>`)
	require.NoError(t, err)

	elem := n.(tree.Element)
	assert.Equal(t, "urn:example", elem.Namespace())

	var sawID bool
	var sawNSDecl bool
	for _, a := range elem.Attributes() {
		if a.IsNamespaceDecl() {
			sawNSDecl = true
			assert.Equal(t, "urn:example", a.Value())
			continue
		}
		if a.LocalName() == "id" {
			sawID = true
			assert.Equal(t, "1", a.Value())
		}
	}
	assert.True(t, sawID)
	assert.True(t, sawNSDecl)
}

func TestParseFragmentCoalescesText(t *testing.T) {
	n, err := ParseFragment(`<a>hello<!-- note -->world</a>`)
	require.NoError(t, err)

	elem := n.(tree.Element)
	require.Len(t, elem.Children(), 1, "the comment is dropped and the two text runs coalesce")

	text, ok := elem.Children()[0].(tree.Text)
	require.True(t, ok)
	assert.Equal(t, "helloworld", text.Value())
}

func TestParseFragmentRejectsMalformedXML(t *testing.T) {
	_, err := ParseFragment(`<a><b></a>`)
	assert.Error(t, err)
}

func TestParseFragmentRejectsEmptySource(t *testing.T) {
	_, err := ParseFragment(``)
	assert.Error(t, err)
}
