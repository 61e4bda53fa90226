// Package cypher renders metamodel entities into Cypher mutation statements
// paired with rollbacks. Statements are plain text: the changelog runner
// replays them in order, so rendering must be deterministic and idempotent
// under re-run.
package cypher

import (
	"fmt"
	"strings"

	"mdb-go/internal/model"
)

// Prop is one rendered pattern attribute. Value is a string (already
// escaped) or a bool; booleans render unquoted so the database stores real
// booleans.
type Prop struct {
	Name  string
	Value any
}

func (p Prop) String() string {
	if b, ok := p.Value.(bool); ok {
		return fmt.Sprintf("%s:%t", p.Name, b)
	}
	return fmt.Sprintf("%s:'%v'", p.Name, p.Value)
}

// NodePattern is a property-graph node pattern: variable, label and ordered
// scalar attributes.
type NodePattern struct {
	Var   string
	Label string
	Props []Prop
}

// Pattern renders the full node pattern, e.g.
// (n0:term {value:'Mouse',origin_id:'2578400'}).
func (n *NodePattern) Pattern() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(n.Var)
	if n.Label != "" {
		b.WriteString(":")
		b.WriteString(n.Label)
	}
	if len(n.Props) > 0 {
		parts := make([]string, len(n.Props))
		for i, p := range n.Props {
			parts[i] = p.String()
		}
		b.WriteString(" {")
		b.WriteString(strings.Join(parts, ","))
		b.WriteString("}")
	}
	b.WriteString(")")
	return b.String()
}

func (n *NodePattern) String() string { return n.Pattern() }

// PlainVar returns a bare-variable pattern for the node, e.g. (n0).
func (n *NodePattern) PlainVar() *NodePattern {
	return &NodePattern{Var: n.Var}
}

// RemoveProp strips the named attribute from the pattern, returning it and
// whether it was present.
func (n *NodePattern) RemoveProp(name string) (Prop, bool) {
	for i, p := range n.Props {
		if p.Name == name {
			n.Props = append(n.Props[:i], n.Props[i+1:]...)
			return p, true
		}
	}
	return Prop{}, false
}

// RelPattern is a directed relationship pattern within a triple.
type RelPattern struct {
	Var  string
	Type string
}

// Pattern renders the relationship arrow, e.g. -[r0:has_term]->.
func (r *RelPattern) Pattern() string {
	if r.Var == "" {
		return fmt.Sprintf("-[:%s]->", r.Type)
	}
	return fmt.Sprintf("-[%s:%s]->", r.Var, r.Type)
}

func (r *RelPattern) String() string { return r.Pattern() }

// Triple is one (src)-[rel]->(dst) pattern.
type Triple struct {
	Src *NodePattern
	Rel *RelPattern
	Dst *NodePattern
}

func (t *Triple) Pattern() string {
	return t.Src.Pattern() + t.Rel.Pattern() + t.Dst.Pattern()
}

func (t *Triple) String() string { return t.Pattern() }

// Path is an ordered group of triples rendered as one pattern. Consecutive
// triples that share a node chain into a single path; other triples render
// as comma-separated segments. A node variable renders its full pattern only
// on first appearance.
type Path struct {
	Triples []*Triple
}

func (p *Path) Pattern() string {
	var b strings.Builder
	rendered := make(map[string]bool)
	node := func(n *NodePattern) string {
		if rendered[n.Var] {
			return "(" + n.Var + ")"
		}
		rendered[n.Var] = true
		return n.Pattern()
	}
	for i, t := range p.Triples {
		if i > 0 && p.Triples[i-1].Dst.Var == t.Src.Var {
			b.WriteString(t.Rel.Pattern())
			b.WriteString(node(t.Dst))
			continue
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(node(t.Src))
		b.WriteString(t.Rel.Pattern())
		b.WriteString(node(t.Dst))
	}
	return b.String()
}

func (p *Path) String() string { return p.Pattern() }

// Builder hands out pattern variables (n0, n1, r0, ...) for one statement
// under construction. Every top-level statement build owns a fresh Builder,
// so variable numbering never leaks across statements.
type Builder struct {
	nodes int
	rels  int
}

func NewBuilder() *Builder { return &Builder{} }

// Node allocates the next node variable.
func (b *Builder) Node(label string, props ...Prop) *NodePattern {
	n := &NodePattern{Var: fmt.Sprintf("n%d", b.nodes), Label: label, Props: props}
	b.nodes++
	return n
}

// Rel allocates the next relationship variable.
func (b *Builder) Rel(typ string) *RelPattern {
	r := &RelPattern{Var: fmt.Sprintf("r%d", b.rels), Type: typ}
	b.rels++
	return r
}

// Cypherize renders an entity as a node pattern: its label plus every set
// simple attribute, strings quote-escaped, booleans preserved. The property
// owner-handle attribute exists only to drive MATCH generation and is never
// included.
func (b *Builder) Cypherize(e *model.Entity) *NodePattern {
	var props []Prop
	for _, name := range model.AttrSpec(e.Kind) {
		if name == model.OwnerHandleAttr {
			continue
		}
		v := e.Attr(name)
		if v == nil {
			continue
		}
		switch val := v.(type) {
		case bool:
			props = append(props, Prop{Name: name, Value: val})
		case string:
			props = append(props, Prop{Name: name, Value: EscapeQuotes(val)})
		default:
			props = append(props, Prop{Name: name, Value: EscapeQuotes(fmt.Sprint(val))})
		}
	}
	return b.Node(e.Label(), props...)
}

// EscapeQuotes backslash-escapes single and double quotes. Previously
// escaped quotes are unescaped first, so the function is idempotent and
// repeated application cannot double-escape.
func EscapeQuotes(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
