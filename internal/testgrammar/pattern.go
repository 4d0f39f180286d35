// Package testgrammar is a small reference grammar.Grammar implementation
// used by tests, the CLI, and the MCP server. It is deliberately not a complete Relax NG engine — spec.md §1
// treats the grammar engine as an opaque, external collaborator ("this
// spec assumes such an engine exists and calls it opaquely") — it exists
// only to give engine something real to drive: element/attribute name
// classes (exact or wildcard), sequencing, choice, interleave, and
// repetition, matched by computing Brzozowski-style derivatives over the
// content model as each child event is fired.
package testgrammar

import "github.com/salvego/salve/grammar"

// NameClass matches a namespace + local name, either exactly or via a
// wildcard ("*" for NS, LocalName, or both).
type NameClass struct {
	NS        string
	LocalName string
}

// Any matches every name.
var Any = NameClass{NS: "*", LocalName: "*"}

// Matches reports whether n accepts name.
func (n NameClass) Matches(name grammar.ExpandedName) bool {
	nsOK := n.NS == "*" || n.NS == name.NS
	localOK := n.LocalName == "*" || n.LocalName == name.LocalName
	return nsOK && localOK
}

// IsWildcard reports whether n matches more than one concrete name.
func (n NameClass) IsWildcard() bool {
	return n.NS == "*" || n.LocalName == "*"
}

// Pattern is a content-model node. Patterns are immutable; derivatives
// return new Patterns sharing structure with their inputs, so Walker.Clone()
// shares every Pattern and copies only the open-element frames and
// namespace scopes: its cost grows with nesting depth, not with document
// size (spec.md §9: "clone cost ≪ replay cost").
type Pattern interface {
	nullable() bool
}

type emptyPattern struct{}
type notAllowedPattern struct{}
type textPattern struct{}

// elementRef is a leaf in a *content* model: "a child element matching
// NameClass, whose own shape is Def". Matching it atomically consumes the
// whole child; Def's own AttrsSpec/Content are validated by entering a new
// frame, not by further derivation of the parent's content pattern.
type elementRef struct {
	Name NameClass
	Def  *ElementPattern
}

type groupPattern struct{ A, B Pattern }     // sequence: A then B
type choicePattern struct{ A, B Pattern }    // alternative
type interleavePattern struct{ A, B Pattern } // unordered mix
type oneOrMorePattern struct{ P Pattern }

// Empty matches nothing (zero children).
func Empty() Pattern { return emptyPattern{} }

// NotAllowed matches no possible input; the absorbing element of Group/Choice.
func NotAllowed() Pattern { return notAllowedPattern{} }

// TextContent matches any amount of character data (including none).
func TextContent() Pattern { return textPattern{} }

// ElementContent references an element definition as a content-model leaf.
func ElementContent(def *ElementPattern) Pattern {
	return elementRef{Name: def.Name, Def: def}
}

// Seq matches patterns in order.
func Seq(patterns ...Pattern) Pattern {
	return foldPatterns(patterns, Empty(), func(a, b Pattern) Pattern { return groupPattern{A: a, B: b} })
}

// Choice matches any one of patterns.
func Choice(patterns ...Pattern) Pattern {
	return foldPatterns(patterns, NotAllowed(), func(a, b Pattern) Pattern { return choicePattern{A: a, B: b} })
}

// Interleave matches all of patterns in any relative order.
func Interleave(patterns ...Pattern) Pattern {
	return foldPatterns(patterns, Empty(), func(a, b Pattern) Pattern { return interleavePattern{A: a, B: b} })
}

func foldPatterns(patterns []Pattern, identity Pattern, combine func(a, b Pattern) Pattern) Pattern {
	if len(patterns) == 0 {
		return identity
	}
	result := patterns[0]
	for _, p := range patterns[1:] {
		result = combine(result, p)
	}
	return result
}

// OneOrMore matches p one or more times in sequence.
func OneOrMore(p Pattern) Pattern { return oneOrMorePattern{P: p} }

// ZeroOrMore matches p zero or more times.
func ZeroOrMore(p Pattern) Pattern { return Choice(Empty(), OneOrMore(p)) }

// Optional matches p zero or one times.
func Optional(p Pattern) Pattern { return Choice(Empty(), p) }

func (emptyPattern) nullable() bool      { return true }
func (notAllowedPattern) nullable() bool { return false }
func (textPattern) nullable() bool       { return true }
func (elementRef) nullable() bool        { return false }
func (g groupPattern) nullable() bool    { return g.A.nullable() && g.B.nullable() }
func (c choicePattern) nullable() bool   { return c.A.nullable() || c.B.nullable() }
func (i interleavePattern) nullable() bool {
	return i.A.nullable() && i.B.nullable()
}
func (o oneOrMorePattern) nullable() bool { return o.P.nullable() }

func isNotAllowed(p Pattern) bool {
	_, ok := p.(notAllowedPattern)
	return ok
}

// derivElementStart computes the content derivative for a child element
// start-tag named name: the element that matched (so its own content/attrs
// can be validated by pushing a new frame) and the remaining pattern this
// level must match for subsequent siblings.
func derivElementStart(p Pattern, name grammar.ExpandedName) (rest Pattern, def *ElementPattern, ok bool) {
	switch v := p.(type) {
	case elementRef:
		if v.Name.Matches(name) {
			return Empty(), v.Def, true
		}
		return NotAllowed(), nil, false
	case groupPattern:
		if restA, def, ok := derivElementStart(v.A, name); ok {
			combined := groupPattern{A: restA, B: v.B}
			if !isNotAllowed(combined.A) {
				return combined, def, true
			}
		}
		if v.A.nullable() {
			if restB, def, ok := derivElementStart(v.B, name); ok {
				return restB, def, true
			}
		}
		return NotAllowed(), nil, false
	case choicePattern:
		if rest, def, ok := derivElementStart(v.A, name); ok {
			return rest, def, true
		}
		if rest, def, ok := derivElementStart(v.B, name); ok {
			return rest, def, true
		}
		return NotAllowed(), nil, false
	case interleavePattern:
		if restA, def, ok := derivElementStart(v.A, name); ok {
			return interleavePattern{A: restA, B: v.B}, def, true
		}
		if restB, def, ok := derivElementStart(v.B, name); ok {
			return interleavePattern{A: v.A, B: restB}, def, true
		}
		return NotAllowed(), nil, false
	case oneOrMorePattern:
		if restP, def, ok := derivElementStart(v.P, name); ok {
			return groupPattern{A: restP, B: ZeroOrMore(v.P)}, def, true
		}
		return NotAllowed(), nil, false
	default:
		return NotAllowed(), nil, false
	}
}

// derivText computes the content derivative for a child text node.
func derivText(p Pattern) (rest Pattern, ok bool) {
	switch v := p.(type) {
	case textPattern:
		return Empty(), true
	case groupPattern:
		if restA, ok := derivText(v.A); ok {
			combined := groupPattern{A: restA, B: v.B}
			if !isNotAllowed(combined.A) {
				return combined, true
			}
		}
		if v.A.nullable() {
			if restB, ok := derivText(v.B); ok {
				return restB, true
			}
		}
		return NotAllowed(), false
	case choicePattern:
		if rest, ok := derivText(v.A); ok {
			return rest, true
		}
		if rest, ok := derivText(v.B); ok {
			return rest, true
		}
		return NotAllowed(), false
	case interleavePattern:
		if restA, ok := derivText(v.A); ok {
			return interleavePattern{A: restA, B: v.B}, true
		}
		if restB, ok := derivText(v.B); ok {
			return interleavePattern{A: v.A, B: restB}, true
		}
		return NotAllowed(), false
	case oneOrMorePattern:
		if restP, ok := derivText(v.P); ok {
			return groupPattern{A: restP, B: ZeroOrMore(v.P)}, true
		}
		return NotAllowed(), false
	default:
		return NotAllowed(), false
	}
}

// possibleChildren collects the set of element-name-classes and whether
// text is accepted, considering nullability so it reflects every reachable
// first position, not just the leftmost leaf.
func possibleChildren(p Pattern, elems *[]NameClass, text *bool) {
	switch v := p.(type) {
	case elementRef:
		*elems = append(*elems, v.Name)
	case textPattern:
		*text = true
	case groupPattern:
		possibleChildren(v.A, elems, text)
		if v.A.nullable() {
			possibleChildren(v.B, elems, text)
		}
	case choicePattern:
		possibleChildren(v.A, elems, text)
		possibleChildren(v.B, elems, text)
	case interleavePattern:
		possibleChildren(v.A, elems, text)
		possibleChildren(v.B, elems, text)
	case oneOrMorePattern:
		possibleChildren(v.P, elems, text)
	}
}
