package model

import "fmt"

// Kind identifies the concrete metamodel entity type. Each kind maps to a
// fixed graph-node label and a fixed set of simple attributes.
type Kind int

const (
	KindNode Kind = iota
	KindEdge
	KindProperty
	KindTerm
	KindValueSet
	KindConcept
	KindTag
	KindOrigin
	KindModel
)

// Attribute names shared across kinds. CommitAttr is a provenance stamp set
// at node-creation time only; OwnerHandleAttr drives MATCH generation for
// properties and never persists to the graph.
const (
	CommitAttr      = "_commit"
	OwnerHandleAttr = "_parent_handle"
)

func (k Kind) String() string { return k.Label() }

// Label returns the property-graph label for the kind.
func (k Kind) Label() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "relationship"
	case KindProperty:
		return "property"
	case KindTerm:
		return "term"
	case KindValueSet:
		return "value_set"
	case KindConcept:
		return "concept"
	case KindTag:
		return "tag"
	case KindOrigin:
		return "origin"
	case KindModel:
		return "model"
	default:
		return "entity"
	}
}

// attrSpecs lists the simple (scalar) attributes of each kind in rendering
// order. Attributes not listed here never appear in a graph pattern.
var attrSpecs = map[Kind][]string{
	KindNode: {"handle", "model", "nanoid", "desc", "version", CommitAttr},
	KindEdge: {
		"handle", "model", "nanoid", "multiplicity", "is_required", "desc",
		"version", CommitAttr,
	},
	KindProperty: {
		"handle", "model", "nanoid", "value_domain", "units", "pattern",
		"item_domain", "is_key", "is_nullable", "is_required", "is_strict",
		"is_deprecated", "desc", "version", CommitAttr, OwnerHandleAttr,
	},
	KindTerm: {
		"handle", "value", "origin_id", "origin_version", "origin_definition",
		"origin_name", "nanoid", CommitAttr,
	},
	KindValueSet: {"handle", "url", "nanoid", CommitAttr},
	KindConcept:  {"nanoid", CommitAttr},
	KindTag:      {"key", "value", "nanoid", CommitAttr},
	KindOrigin:   {"name", "url", "is_external", "nanoid", CommitAttr},
	KindModel: {
		"handle", "name", "version", "repository", "latest_version", "nanoid",
		CommitAttr,
	},
}

// AttrSpec returns the ordered simple-attribute names for the kind.
func AttrSpec(k Kind) []string { return attrSpecs[k] }

// Entity is one metamodel object: a node, edge, property, term, value set,
// concept, tag, origin or model record. Attrs holds only scalar attributes
// (string or bool); relational attributes live in the explicit fields and
// are traversed separately by the converter.
type Entity struct {
	Kind  Kind
	Attrs map[string]any

	// Relational attributes, kept in insertion order.
	Tags     []*Entity
	Origin   *Entity
	Terms    []*Entity
	Concept  *Entity
	ValueSet *Entity
	Props    []*Entity

	// Internal linkage, never rendered into a pattern.
	Parent *Entity // owning entity, set on tags
	Src    *Entity // edge source node
	Dst    *Entity // edge destination node
}

// NewEntity builds an entity of the given kind from scalar attributes.
// Attribute names outside the kind's spec are dropped.
func NewEntity(kind Kind, attrs map[string]any) *Entity {
	e := &Entity{Kind: kind, Attrs: make(map[string]any)}
	for _, name := range attrSpecs[kind] {
		if v, ok := attrs[name]; ok && v != nil {
			e.Attrs[name] = v
		}
	}
	return e
}

// Label returns the graph-node label for the entity.
func (e *Entity) Label() string { return e.Kind.Label() }

// Attr returns the named scalar attribute, or nil when unset.
func (e *Entity) Attr(name string) any {
	if e.Attrs == nil {
		return nil
	}
	return e.Attrs[name]
}

// StringAttr returns the named attribute as a string ("" when unset or not
// a string).
func (e *Entity) StringAttr(name string) string {
	s, _ := e.Attr(name).(string)
	return s
}

// SetAttr sets a scalar attribute. A nil value unsets it.
func (e *Entity) SetAttr(name string, value any) {
	if e.Attrs == nil {
		e.Attrs = make(map[string]any)
	}
	if value == nil {
		delete(e.Attrs, name)
		return
	}
	e.Attrs[name] = value
}

// Handle returns the entity's handle attribute.
func (e *Entity) Handle() string { return e.StringAttr("handle") }

// Version returns the entity's version attribute.
func (e *Entity) Version() string { return e.StringAttr("version") }

// Commit returns the entity's commit marker, if any.
func (e *Entity) Commit() string { return e.StringAttr(CommitAttr) }

// SetCommit stamps the commit marker attribute.
func (e *Entity) SetCommit(commit string) { e.SetAttr(CommitAttr, commit) }

// OwnerHandle returns the handle of the property's owning node or edge.
func (e *Entity) OwnerHandle() string { return e.StringAttr(OwnerHandleAttr) }

// SetOwnerHandle records the owning entity's handle on a property.
func (e *Entity) SetOwnerHandle(handle string) { e.SetAttr(OwnerHandleAttr, handle) }

// Nanoid returns the entity's nanoid attribute.
func (e *Entity) Nanoid() string { return e.StringAttr("nanoid") }

// Equal reports value equality: same label and same full scalar-attribute
// map. Relational attributes do not participate.
func (e *Entity) Equal(other *Entity) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Kind != other.Kind || len(e.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range e.Attrs {
		ov, ok := other.Attrs[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Dup returns a copy of the entity with its own attribute map. Relational
// references are shared; callers duplicate those explicitly where the
// separation pass requires it.
func (e *Entity) Dup() *Entity {
	if e == nil {
		return nil
	}
	dup := &Entity{
		Kind:     e.Kind,
		Attrs:    make(map[string]any, len(e.Attrs)),
		Origin:   e.Origin,
		Concept:  e.Concept,
		ValueSet: e.ValueSet,
		Parent:   e.Parent,
		Src:      e.Src,
		Dst:      e.Dst,
	}
	for k, v := range e.Attrs {
		dup.Attrs[k] = v
	}
	dup.Tags = append(dup.Tags, e.Tags...)
	dup.Terms = append(dup.Terms, e.Terms...)
	dup.Props = append(dup.Props, e.Props...)
	return dup
}

// AddTag appends a tag entity, replacing any existing tag with the same key.
func (e *Entity) AddTag(tag *Entity) {
	key := tag.StringAttr("key")
	for i, t := range e.Tags {
		if t.StringAttr("key") == key {
			e.Tags[i] = tag
			return
		}
	}
	e.Tags = append(e.Tags, tag)
}

// TagByKey returns the tag with the given key, or nil.
func (e *Entity) TagByKey(key string) *Entity {
	for _, t := range e.Tags {
		if t.StringAttr("key") == key {
			return t
		}
	}
	return nil
}

// AddTerm appends a term entity, replacing any existing term with the same
// (value, origin_name) key.
func (e *Entity) AddTerm(term *Entity) {
	val, origin := term.StringAttr("value"), term.StringAttr("origin_name")
	for i, t := range e.Terms {
		if t.StringAttr("value") == val && t.StringAttr("origin_name") == origin {
			e.Terms[i] = term
			return
		}
	}
	e.Terms = append(e.Terms, term)
}

// AddProp appends a property entity, replacing any existing property with
// the same handle.
func (e *Entity) AddProp(prop *Entity) {
	handle := prop.Handle()
	for i, p := range e.Props {
		if p.Handle() == handle {
			e.Props[i] = prop
			return
		}
	}
	e.Props = append(e.Props, prop)
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s%v", e.Label(), e.Attrs)
}
