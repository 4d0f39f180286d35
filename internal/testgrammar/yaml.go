package testgrammar

import "go.yaml.in/yaml/v4"

// The YAML fixture format lets internal/testutil's txtar scenarios (and the
// grammar files the CLI and the MCP server load) declare a small grammar
// without writing Go.
//
// Example:
//
//	namespaces: ["urn:example"]
//	root:
//	  name: {local: a}
//	  content:
//	    oneOrMore:
//	      element:
//	        name: {local: b}

type nameClassSpec struct {
	NS    string `yaml:"ns,omitempty"`
	Local string `yaml:"local,omitempty"`
}

func (n nameClassSpec) toNameClass() NameClass {
	return NameClass{NS: n.NS, LocalName: n.Local}
}

type attrSpecYAML struct {
	Name     nameClassSpec `yaml:"name"`
	Required bool          `yaml:"required,omitempty"`
}

type elementSpecYAML struct {
	Name    nameClassSpec  `yaml:"name"`
	Attrs   []attrSpecYAML `yaml:"attrs,omitempty"`
	Content patternSpecYAML `yaml:"content,omitempty"`
}

type patternSpecYAML struct {
	Empty      bool             `yaml:"empty,omitempty"`
	Text       bool             `yaml:"text,omitempty"`
	Element    *elementSpecYAML `yaml:"element,omitempty"`
	Seq        []patternSpecYAML `yaml:"seq,omitempty"`
	Choice     []patternSpecYAML `yaml:"choice,omitempty"`
	Interleave []patternSpecYAML `yaml:"interleave,omitempty"`
	OneOrMore  *patternSpecYAML `yaml:"oneOrMore,omitempty"`
	ZeroOrMore *patternSpecYAML `yaml:"zeroOrMore,omitempty"`
	Optional   *patternSpecYAML `yaml:"optional,omitempty"`
}

type grammarSpecYAML struct {
	Namespaces []string        `yaml:"namespaces,omitempty"`
	Root       elementSpecYAML `yaml:"root"`
}

// LoadYAML decodes a grammar fixture in the format documented above.
func LoadYAML(data []byte) (*Grammar, error) {
	var spec grammarSpecYAML
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	root := buildElement(spec.Root)
	return New(root, spec.Namespaces...), nil
}

func buildElement(es elementSpecYAML) *ElementPattern {
	ep := &ElementPattern{Name: es.Name.toNameClass()}
	for _, a := range es.Attrs {
		ep.Attrs = append(ep.Attrs, AttrSpec{Name: a.Name.toNameClass(), Required: a.Required})
	}
	ep.Content = buildPattern(es.Content)
	return ep
}

func buildPattern(ps patternSpecYAML) Pattern {
	switch {
	case ps.Text:
		return TextContent()
	case ps.Element != nil:
		return ElementContent(buildElement(*ps.Element))
	case len(ps.Seq) > 0:
		pats := make([]Pattern, len(ps.Seq))
		for i, p := range ps.Seq {
			pats[i] = buildPattern(p)
		}
		return Seq(pats...)
	case len(ps.Choice) > 0:
		pats := make([]Pattern, len(ps.Choice))
		for i, p := range ps.Choice {
			pats[i] = buildPattern(p)
		}
		return Choice(pats...)
	case len(ps.Interleave) > 0:
		pats := make([]Pattern, len(ps.Interleave))
		for i, p := range ps.Interleave {
			pats[i] = buildPattern(p)
		}
		return Interleave(pats...)
	case ps.OneOrMore != nil:
		return OneOrMore(buildPattern(*ps.OneOrMore))
	case ps.ZeroOrMore != nil:
		return ZeroOrMore(buildPattern(*ps.ZeroOrMore))
	case ps.Optional != nil:
		return Optional(buildPattern(*ps.Optional))
	default:
		return Empty()
	}
}
