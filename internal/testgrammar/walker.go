package testgrammar

import (
	"fmt"

	"github.com/salvego/salve/grammar"
)

// AttrSpec describes one attribute an ElementPattern accepts.
type AttrSpec struct {
	Name     NameClass
	Required bool
}

// ElementPattern is the shape of one element definition: its own name
// class, the attributes it accepts, and the content model for its children.
type ElementPattern struct {
	Name    NameClass
	Attrs   []AttrSpec
	Content Pattern
}

// Grammar is a grammar.Grammar backed by a single root ElementPattern.
type Grammar struct {
	root       *ElementPattern
	namespaces []string
}

// New builds a Grammar whose document element must match root.
func New(root *ElementPattern, namespaces ...string) *Grammar {
	return &Grammar{root: root, namespaces: namespaces}
}

func (g *Grammar) NewWalker() grammar.Walker {
	return &Walker{
		grammar:    g,
		topContent: ElementContent(g.root),
	}
}

func (g *Grammar) Namespaces() []string {
	return append([]string(nil), g.namespaces...)
}

// frame tracks one currently-open element: the derivative of its content
// model consumed so far, and (while in the attribute phase) which of its
// attribute specs remain unmatched.
type frame struct {
	def          *ElementPattern
	content      Pattern
	attrsPending []AttrSpec
	awaiting     *AttrSpec
}

// Walker implements grammar.Walker over Pattern derivatives. See the
// package doc for why this is a reference implementation, not a complete
// Relax NG engine.
type Walker struct {
	grammar    *Grammar
	topContent Pattern
	frames     []*frame
	attrPhase  bool
	rootClosed bool
	nsScopes   []map[string]string
}

func (w *Walker) Clone() grammar.Walker {
	frames := make([]*frame, len(w.frames))
	for i, f := range w.frames {
		nf := *f
		frames[i] = &nf
	}
	return &Walker{
		grammar:    w.grammar,
		topContent: w.topContent,
		frames:     frames,
		attrPhase:  w.attrPhase,
		rootClosed: w.rootClosed,
		nsScopes:   append([]map[string]string(nil), w.nsScopes...),
	}
}

func (w *Walker) currentFrame() *frame {
	if len(w.frames) == 0 {
		return nil
	}
	return w.frames[len(w.frames)-1]
}

func (w *Walker) FireEvent(ev grammar.Event) []grammar.ValidationError {
	switch ev.Name {
	case grammar.EnterStartTag:
		return w.fireEnterStartTag(ev)
	case grammar.AttributeName:
		return w.fireAttributeName(ev)
	case grammar.AttributeValue:
		return w.fireAttributeValue(ev)
	case grammar.LeaveStartTag:
		return w.fireLeaveStartTag()
	case grammar.Text:
		return w.fireText()
	case grammar.EndTag:
		return w.fireEndTag(ev)
	default:
		return []grammar.ValidationError{{Message: fmt.Sprintf("unknown event %q", ev.Name)}}
	}
}

func (w *Walker) fireEnterStartTag(ev grammar.Event) []grammar.ValidationError {
	name := grammar.ExpandedName{NS: ev.NS, LocalName: ev.LocalName}
	content := w.topContent
	f := w.currentFrame()
	if f != nil {
		content = f.content
	}
	rest, def, ok := derivElementStart(content, name)
	if !ok {
		// Recovery: the rejected element still gets a frame (no attributes,
		// empty content) so its own leaveStartTag and endTag match it, and
		// the parent's remaining content becomes optional so the parent's
		// endTag does not report a second error for the same spot.
		if f != nil {
			f.content = Choice(f.content, Empty())
		} else {
			w.topContent = Choice(w.topContent, Empty())
		}
		w.frames = append(w.frames, &frame{def: &ElementPattern{Name: NameClass{NS: name.NS, LocalName: name.LocalName}}, content: Empty()})
		w.attrPhase = true
		return []grammar.ValidationError{{Message: fmt.Sprintf("element %s not allowed here", name)}}
	}
	if f != nil {
		f.content = rest
	} else {
		w.topContent = rest
	}
	w.frames = append(w.frames, &frame{
		def:          def,
		content:      def.Content,
		attrsPending: append([]AttrSpec(nil), def.Attrs...),
	})
	w.attrPhase = true
	return nil
}

func (w *Walker) fireAttributeName(ev grammar.Event) []grammar.ValidationError {
	f := w.currentFrame()
	if f == nil || !w.attrPhase {
		return []grammar.ValidationError{{Message: "attribute outside of any element"}}
	}
	if f.awaiting != nil {
		return []grammar.ValidationError{{Message: "attributeValue expected before next attributeName"}}
	}
	name := grammar.ExpandedName{NS: ev.NS, LocalName: ev.LocalName}
	idx := findAttrSpec(f.attrsPending, name)
	if idx < 0 {
		return []grammar.ValidationError{{Message: fmt.Sprintf("attribute %s not allowed here", name)}}
	}
	spec := f.attrsPending[idx]
	f.attrsPending = removeAttrAt(f.attrsPending, idx)
	f.awaiting = &spec
	return nil
}

func (w *Walker) fireAttributeValue(ev grammar.Event) []grammar.ValidationError {
	f := w.currentFrame()
	if f == nil || f.awaiting == nil {
		return []grammar.ValidationError{{Message: "attributeValue without a preceding attributeName"}}
	}
	f.awaiting = nil
	return nil
}

func (w *Walker) fireLeaveStartTag() []grammar.ValidationError {
	f := w.currentFrame()
	if f == nil || !w.attrPhase {
		return []grammar.ValidationError{{Message: "leaveStartTag outside of a start tag"}}
	}
	var errs []grammar.ValidationError
	for _, spec := range f.attrsPending {
		if spec.Required {
			errs = append(errs, grammar.ValidationError{Message: fmt.Sprintf("required attribute %s missing", spec.Name.LocalName)})
		}
	}
	w.attrPhase = false
	return errs
}

func (w *Walker) fireText() []grammar.ValidationError {
	f := w.currentFrame()
	if f == nil {
		return []grammar.ValidationError{{Message: "text not allowed at document level"}}
	}
	rest, ok := derivText(f.content)
	if !ok {
		return []grammar.ValidationError{{Message: fmt.Sprintf("text not allowed in <%s>", f.def.Name.LocalName)}}
	}
	f.content = rest
	return nil
}

func (w *Walker) fireEndTag(ev grammar.Event) []grammar.ValidationError {
	f := w.currentFrame()
	if f == nil {
		return []grammar.ValidationError{{Message: "endTag without a matching start tag"}}
	}
	var errs []grammar.ValidationError
	if !f.content.nullable() {
		errs = []grammar.ValidationError{{Message: fmt.Sprintf("element <%s> is missing required content", f.def.Name.LocalName)}}
	}
	w.frames = w.frames[:len(w.frames)-1]
	if len(w.frames) == 0 {
		w.rootClosed = true
	}
	return errs
}

func (w *Walker) EnterContextWithMapping(mapping map[string]string) {
	w.nsScopes = append(w.nsScopes, mapping)
}

func (w *Walker) LeaveContext() {
	if n := len(w.nsScopes); n > 0 {
		w.nsScopes = w.nsScopes[:n-1]
	}
}

func (w *Walker) Possible() []grammar.Event {
	f := w.currentFrame()
	if f != nil && w.attrPhase {
		events := make([]grammar.Event, 0, len(f.attrsPending))
		for _, spec := range f.attrsPending {
			events = append(events, grammar.Event{Name: grammar.AttributeName, NS: spec.Name.NS, LocalName: spec.Name.LocalName})
		}
		return events
	}
	content := w.topContent
	if f != nil {
		content = f.content
	}
	var elems []NameClass
	var text bool
	possibleChildren(content, &elems, &text)
	events := make([]grammar.Event, 0, len(elems)+1)
	for _, nc := range elems {
		events = append(events, grammar.Event{Name: grammar.EnterStartTag, NS: nc.NS, LocalName: nc.LocalName})
	}
	if text {
		events = append(events, grammar.Event{Name: grammar.Text})
	}
	return events
}

func (w *Walker) End() []grammar.ValidationError {
	if len(w.frames) != 0 {
		return []grammar.ValidationError{{Message: "document has unclosed elements"}}
	}
	if !w.rootClosed {
		return []grammar.ValidationError{{Message: "document has no root element"}}
	}
	return nil
}

func (w *Walker) CanEnd() bool {
	return len(w.frames) == 0 && w.rootClosed
}

func (w *Walker) ResolveName(prefix string) (grammar.ExpandedName, bool) {
	for i := len(w.nsScopes) - 1; i >= 0; i-- {
		if uri, ok := w.nsScopes[i][prefix]; ok {
			return grammar.ExpandedName{NS: uri, LocalName: ""}, true
		}
	}
	if prefix == "" {
		return grammar.ExpandedName{}, true
	}
	return grammar.ExpandedName{}, false
}

func (w *Walker) UnresolveName(name grammar.ExpandedName) (string, bool) {
	effective := make(map[string]string)
	for _, scope := range w.nsScopes {
		for prefix, uri := range scope {
			effective[prefix] = uri
		}
	}
	if uri, ok := effective[""]; ok && uri == name.NS {
		return "", true
	}
	for prefix, uri := range effective {
		if uri == name.NS && prefix != "" {
			return prefix, true
		}
	}
	if name.NS == "" {
		return "", true
	}
	return "", false
}

func findAttrSpec(specs []AttrSpec, name grammar.ExpandedName) int {
	exact := -1
	wildcard := -1
	for i, spec := range specs {
		if !spec.Name.Matches(name) {
			continue
		}
		if spec.Name.IsWildcard() {
			if wildcard < 0 {
				wildcard = i
			}
		} else {
			exact = i
		}
	}
	if exact >= 0 {
		return exact
	}
	return wildcard
}

func removeAttrAt(s []AttrSpec, idx int) []AttrSpec {
	out := make([]AttrSpec, 0, len(s)-1)
	out = append(out, s[:idx]...)
	out = append(out, s[idx+1:]...)
	return out
}
