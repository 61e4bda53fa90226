package model

// PropKey identifies a property by its owning node/edge handle plus its own
// handle.
type PropKey struct {
	Owner  string
	Handle string
}

// PropEntry is one (owner, handle) -> property binding in a model. Entries
// keep the insertion order of the source document, which fixes the traversal
// (and therefore changeset) order downstream.
type PropEntry struct {
	Key  PropKey
	Prop *Entity
}

// Model is an in-memory metamodel graph as produced by a model reader. It is
// consumed by the changelog converter and never persisted directly.
type Model struct {
	Handle  string
	Version string
	URI     string

	Nodes []*Entity
	Edges []*Entity
	Props []PropEntry
	Terms []*Entity
}

// AddNode appends a node entity.
func (m *Model) AddNode(node *Entity) { m.Nodes = append(m.Nodes, node) }

// AddEdge appends an edge entity.
func (m *Model) AddEdge(edge *Entity) { m.Edges = append(m.Edges, edge) }

// AddProp records a property under its owner and appends it to the owner's
// property list.
func (m *Model) AddProp(owner *Entity, prop *Entity) {
	owner.AddProp(prop)
	m.Props = append(m.Props, PropEntry{
		Key:  PropKey{Owner: owner.Handle(), Handle: prop.Handle()},
		Prop: prop,
	})
}

// NodeByHandle returns the node with the given handle, or nil.
func (m *Model) NodeByHandle(handle string) *Entity {
	for _, n := range m.Nodes {
		if n.Handle() == handle {
			return n
		}
	}
	return nil
}

// EdgeByHandle returns the first edge with the given handle, or nil.
func (m *Model) EdgeByHandle(handle string) *Entity {
	for _, e := range m.Edges {
		if e.Handle() == handle {
			return e
		}
	}
	return nil
}

// owner resolves a property owner handle against nodes first, then edges.
func (m *Model) owner(handle string) *Entity {
	if n := m.NodeByHandle(handle); n != nil {
		return n
	}
	return m.EdgeByHandle(handle)
}

// SeparateSharedProps returns a copy of the model in which any property
// value shared by more than one owner is split into independent copies, each
// with a fresh nanoid and its own value set. Without this pass two owners
// pointing at equal property attributes would collide downstream, where
// property identity is structural.
func SeparateSharedProps(m *Model) *Model {
	out := m.copy()
	var seen []*Entity
	for i, entry := range out.Props {
		prop := entry.Prop
		if !containsEqual(seen, prop) {
			seen = append(seen, prop)
			continue
		}
		dup := prop.Dup()
		if dup.Nanoid() != "" {
			dup.SetAttr("nanoid", MakeNanoid())
		}
		if commit := prop.Commit(); commit != "" {
			dup.SetCommit(commit)
		}
		if prop.ValueSet != nil {
			dup.ValueSet = prop.ValueSet.Dup()
		}
		if owner := out.owner(entry.Key.Owner); owner != nil {
			replaceProp(owner, prop, dup)
		}
		out.Props[i].Prop = dup
	}
	return out
}

// AddVersionToEntities stamps the model version on every node, edge and
// property that lacks an explicit one. Runs after property separation so
// duplicated copies are stamped independently.
func AddVersionToEntities(m *Model) {
	for _, node := range m.Nodes {
		if node.Version() == "" {
			node.SetAttr("version", m.Version)
		}
	}
	for _, edge := range m.Edges {
		if edge.Version() == "" {
			edge.SetAttr("version", m.Version)
		}
	}
	for _, entry := range m.Props {
		if entry.Prop.Version() == "" {
			entry.Prop.SetAttr("version", m.Version)
		}
	}
}

// copy deep-copies the model's entity graph so the separation pass never
// rewrites the caller's value. Aliasing is preserved: an entity referenced
// from several places copies to one entity referenced from the same places.
func (m *Model) copy() *Model {
	memo := make(map[*Entity]*Entity)
	out := &Model{Handle: m.Handle, Version: m.Version, URI: m.URI}
	for _, n := range m.Nodes {
		out.Nodes = append(out.Nodes, copyEntity(n, memo))
	}
	for _, e := range m.Edges {
		out.Edges = append(out.Edges, copyEntity(e, memo))
	}
	for _, p := range m.Props {
		out.Props = append(out.Props, PropEntry{Key: p.Key, Prop: copyEntity(p.Prop, memo)})
	}
	for _, t := range m.Terms {
		out.Terms = append(out.Terms, copyEntity(t, memo))
	}
	return out
}

func copyEntity(e *Entity, memo map[*Entity]*Entity) *Entity {
	if e == nil {
		return nil
	}
	if dup, ok := memo[e]; ok {
		return dup
	}
	dup := &Entity{Kind: e.Kind, Attrs: make(map[string]any, len(e.Attrs))}
	memo[e] = dup
	for k, v := range e.Attrs {
		dup.Attrs[k] = v
	}
	for _, t := range e.Tags {
		dup.Tags = append(dup.Tags, copyEntity(t, memo))
	}
	for _, t := range e.Terms {
		dup.Terms = append(dup.Terms, copyEntity(t, memo))
	}
	for _, p := range e.Props {
		dup.Props = append(dup.Props, copyEntity(p, memo))
	}
	dup.Origin = copyEntity(e.Origin, memo)
	dup.Concept = copyEntity(e.Concept, memo)
	dup.ValueSet = copyEntity(e.ValueSet, memo)
	dup.Parent = copyEntity(e.Parent, memo)
	dup.Src = copyEntity(e.Src, memo)
	dup.Dst = copyEntity(e.Dst, memo)
	return dup
}

func containsEqual(ents []*Entity, e *Entity) bool {
	for _, x := range ents {
		if x.Equal(e) {
			return true
		}
	}
	return false
}

func replaceProp(owner *Entity, old, dup *Entity) {
	for i, p := range owner.Props {
		if p == old {
			owner.Props[i] = dup
			return
		}
	}
	owner.Props = append(owner.Props, dup)
}
