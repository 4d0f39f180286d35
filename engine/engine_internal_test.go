package engine

import (
	"github.com/salvego/salve/internal/domtree"
	"github.com/salvego/salve/internal/testgrammar"
)

// abGrammar accepts exactly <a><b/></a>: a single required <b> child of <a>.
func abGrammar() *testgrammar.Grammar {
	b := &testgrammar.ElementPattern{Name: testgrammar.NameClass{LocalName: "b"}}
	a := &testgrammar.ElementPattern{
		Name:    testgrammar.NameClass{LocalName: "a"},
		Content: testgrammar.ElementContent(b),
	}
	return testgrammar.New(a)
}

// abThenDGrammar accepts <a><b/><d/></a>: <b> only as the first child, then <d>.
func abThenDGrammar() *testgrammar.Grammar {
	b := &testgrammar.ElementPattern{Name: testgrammar.NameClass{LocalName: "b"}}
	d := &testgrammar.ElementPattern{Name: testgrammar.NameClass{LocalName: "d"}}
	a := &testgrammar.ElementPattern{
		Name: testgrammar.NameClass{LocalName: "a"},
		Content: testgrammar.Seq(
			testgrammar.ElementContent(b),
			testgrammar.ElementContent(d),
		),
	}
	return testgrammar.New(a)
}

// docAB builds a detached <a><b/></a> document, returning its root element.
func docAB() *domtree.Element {
	doc := domtree.NewDocument()
	a := doc.NewElement("", "a")
	b := doc.NewElement("", "b")
	a.AppendChild(b)
	doc.SetRoot(a)
	return a
}

// docAC builds a detached <a><c/></a> document.
func docAC() *domtree.Element {
	doc := domtree.NewDocument()
	a := doc.NewElement("", "a")
	c := doc.NewElement("", "c")
	a.AppendChild(c)
	doc.SetRoot(a)
	return a
}

// docAEmpty builds a detached <a></a> document (no children).
func docAEmpty() *domtree.Element {
	doc := domtree.NewDocument()
	a := doc.NewElement("", "a")
	doc.SetRoot(a)
	return a
}
