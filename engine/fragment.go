package engine

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/salvego/salve/internal/domtree"
	"github.com/salvego/salve/tree"
)

// ParseFragment parses a single well-formed XML element (with any nested
// content) into a detached tree.Node backed by internal/domtree, for use
// with Validator.SpeculativelyValidateFragment. Namespace prefixes are
// resolved by encoding/xml the same way it resolves a full document.
func ParseFragment(xmlSource string) (tree.Node, error) {
	dec := xml.NewDecoder(strings.NewReader(xmlSource))
	doc := domtree.NewDocument()
	var stack []*domtree.Element
	var root *domtree.Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing fragment: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			elem := doc.NewElement(t.Name.Space, t.Name.Local)
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					elem.SetNamespaceDecl(a.Name.Local, a.Value)
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					elem.SetNamespaceDecl("", a.Value)
				default:
					elem.SetAttr(a.Name.Space, a.Name.Local, a.Value)
				}
			}
			if len(stack) > 0 {
				stack[len(stack)-1].AppendChild(elem)
			} else if root == nil {
				root = elem
			}
			stack = append(stack, elem)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].AppendText(string(t))
			}
		case xml.Comment, xml.ProcInst, xml.Directive:
			// Not validation-significant; dropped from the fragment tree.
		}
	}
	if root == nil {
		return nil, fmt.Errorf("parsing fragment: no element found")
	}
	doc.SetRoot(root)
	return root, nil
}
